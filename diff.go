package ili9341

import (
	"periph.io/x/devices/v3/ili9341/image16bit"
)

// countChangedPixels returns the number of pixels that differ between the
// current and previously displayed framebuffers. Used as the pre-pass input
// to the interlace decision before any spans are built.
func countChangedPixels(fb, prev *image16bit.RGB565) int {
	h := fb.Rect.Dy()
	changed := 0
	for y := 0; y < h; y++ {
		row := fb.Row(y)
		prevRow := prev.Row(y)
		for x, p := range row {
			if p != prevRow[x] {
				changed++
			}
		}
	}
	return changed
}

// diffExact compares the two framebuffers pixel by pixel and appends one span
// per run of changed pixels within a row. When interlaced is set only rows
// matching the field parity are examined. Spans are emitted in ascending
// (y, x) order and never overlap.
func diffExact(fb, prev *image16bit.RGB565, interlaced bool, parity int, out *spanList) {
	w := fb.Rect.Dx()
	h := fb.Rect.Dy()
	y, yInc := 0, 1
	if interlaced {
		y, yInc = parity, 2
	}
	for ; y < h; y += yInc {
		row := fb.Row(y)
		prevRow := prev.Row(y)
		for x := 0; x < w; {
			if row[x] == prevRow[x] {
				x++
				continue
			}
			start := x
			for x < w && row[x] != prevRow[x] {
				x++
			}
			out.add(span{
				y:            y,
				endY:         y + 1,
				x:            start,
				endX:         x,
				lastScanEndX: x,
				size:         x - start,
			})
		}
	}
}

// coarseDiffAlign is the group width, in pixels, of the coarse diff. Rows and
// strides must both be multiples of it for the coarse path to be legal.
const coarseDiffAlign = 4

// canDiffCoarse reports whether the framebuffer geometry satisfies the coarse
// diff preconditions.
func canDiffCoarse(fb *image16bit.RGB565) bool {
	return fb.Rect.Dx()%coarseDiffAlign == 0 && fb.Stride%coarseDiffAlign == 0
}

// diffCoarse4 compares the framebuffers four pixels at a time. If any pixel in
// a group of 4 differs the whole group is treated as changed, trading a little
// wasted transfer for fewer comparisons. Span bounds are therefore always
// multiples of 4. Callers must check canDiffCoarse first; geometry that fails
// the precondition must use diffExact.
func diffCoarse4(fb, prev *image16bit.RGB565, interlaced bool, parity int, out *spanList) {
	w := fb.Rect.Dx()
	h := fb.Rect.Dy()
	quads := w / coarseDiffAlign
	y, yInc := 0, 1
	if interlaced {
		y, yInc = parity, 2
	}
	for ; y < h; y += yInc {
		row := fb.Row(y)
		prevRow := prev.Row(y)
		for q := 0; q < quads; {
			if quadEqual(row, prevRow, q*coarseDiffAlign) {
				q++
				continue
			}
			start := q
			for q < quads && !quadEqual(row, prevRow, q*coarseDiffAlign) {
				q++
			}
			x := start * coarseDiffAlign
			endX := q * coarseDiffAlign
			out.add(span{
				y:            y,
				endY:         y + 1,
				x:            x,
				endX:         endX,
				lastScanEndX: endX,
				size:         endX - x,
			})
		}
	}
}

func quadEqual(a, b []uint16, i int) bool {
	return a[i] == b[i] && a[i+1] == b[i+1] && a[i+2] == b[i+2] && a[i+3] == b[i+3]
}
