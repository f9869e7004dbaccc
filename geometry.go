package ili9341

import (
	"image"
)

// geometry places source content on the panel and carries the controller RAM
// offsets that cursor commands must add to every coordinate.
type geometry struct {
	panel  image.Rectangle
	colOff int
	rowOff int
}

// place centers a source rectangle on the panel. Sources larger than the
// panel are cropped symmetrically; smaller ones are centered. It returns the
// destination rectangle on the panel and the matching source sub-rectangle,
// both of identical size.
func (g geometry) place(src image.Rectangle) (dst, sr image.Rectangle) {
	pw, ph := g.panel.Dx(), g.panel.Dy()
	sw, sh := src.Dx(), src.Dy()

	w, h := sw, sh
	if w > pw {
		w = pw
	}
	if h > ph {
		h = ph
	}

	dst = image.Rect(0, 0, w, h).Add(image.Point{X: (pw - w) / 2, Y: (ph - h) / 2})
	sr = image.Rect(0, 0, w, h).Add(src.Min).Add(image.Point{X: (sw - w) / 2, Y: (sh - h) / 2})
	return dst, sr
}

// scaleRect returns the largest aspect-preserving destination for src
// centered on the panel. Used when content should fill the panel rather than
// map pixel for pixel.
func (g geometry) scaleRect(src image.Rectangle) image.Rectangle {
	pw, ph := g.panel.Dx(), g.panel.Dy()
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 {
		return image.Rectangle{}
	}

	w := pw
	h := sh * pw / sw
	if h > ph {
		h = ph
		w = sw * ph / sh
	}
	return image.Rect(0, 0, w, h).Add(image.Point{X: (pw - w) / 2, Y: (ph - h) / 2})
}
