// Package image16bit provides a 16-bit RGB565 image format optimized for SPI TFT panels.
//
// ILI9341-class controllers consume pixels as 16-bit RGB565 words. This package
// provides the RGB565 color type and a packed framebuffer implementation whose
// row stride can be padded for transfer-friendly alignment.
package image16bit

import (
	"image"
	"image/color"
)

// RGB565Color represents a 16-bit color in 5-6-5 bit layout: the top 5 bits
// are red, the middle 6 bits green and the low 5 bits blue.
type RGB565Color uint16

// RGBA converts the RGB565 color to standard RGBA.
func (c RGB565Color) RGBA() (r, g, b, a uint32) {
	// Expand each channel to 8 bits by replicating the top bits into the
	// newly created low bits, then to 16 bits.
	r8 := uint32(c>>8) & 0xF8
	r8 |= r8 >> 5
	g8 := uint32(c>>3) & 0xFC
	g8 |= g8 >> 6
	b8 := uint32(c<<3) & 0xF8
	b8 |= b8 >> 5
	return r8 * 0x101, g8 * 0x101, b8 * 0x101, 0xFFFF
}

// ToRGB565 converts any color.Color to its closest RGB565 value.
func ToRGB565(c color.Color) RGB565Color {
	if v, ok := c.(RGB565Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB565Color(((r >> 11) << 11) | ((g >> 10) << 5) | (b >> 11))
}

func toRGB565Color(c color.Color) color.Color {
	return ToRGB565(c)
}

// RGB565Model converts colors to RGB565Color.
var RGB565Model = color.ModelFunc(toRGB565Color)

// RGB565 is a 16-bit RGB565 image backed by one uint16 per pixel.
//
// Stride is expressed in pixels, not bytes, and may be larger than the image
// width when rows are padded for alignment.
type RGB565 struct {
	Pix    []uint16        // Pixel data, one uint16 per pixel
	Stride int             // Pixels per row, including any padding
	Rect   image.Rectangle // Image bounds
}

// New creates a new RGB565 image with the specified bounds and no row padding.
func New(r image.Rectangle) *RGB565 {
	return NewWithStride(r, r.Dx())
}

// NewWithStride creates a new RGB565 image whose rows are stride pixels apart.
// The stride must be at least the image width.
func NewWithStride(r image.Rectangle, stride int) *RGB565 {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &RGB565{Rect: r}
	}
	if stride < w {
		panic("image16bit: stride smaller than width")
	}
	return &RGB565{
		Pix:    make([]uint16, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *RGB565) ColorModel() color.Model {
	return RGB565Model
}

// Bounds returns the image bounds.
func (p *RGB565) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
// It implements the image.Image interface.
func (p *RGB565) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

// RGB565At returns the RGB565 color of the pixel at (x, y).
func (p *RGB565) RGB565At(x, y int) RGB565Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	return RGB565Color(p.Pix[p.PixOffset(x, y)])
}

// Set sets the color of the pixel at (x, y).
func (p *RGB565) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = uint16(ToRGB565(c))
}

// SetRGB565 sets the RGB565 color of the pixel at (x, y).
// This is faster than Set() as it doesn't require color conversion.
func (p *RGB565) SetRGB565(x, y int, c RGB565Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = uint16(c)
}

// Row returns the pixels of row y, excluding any stride padding.
func (p *RGB565) Row(y int) []uint16 {
	off := (y - p.Rect.Min.Y) * p.Stride
	return p.Pix[off : off+p.Rect.Dx()]
}

// PixOffset returns the index into Pix for the pixel at (x, y).
func (p *RGB565) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x - p.Rect.Min.X)
}
