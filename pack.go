package ili9341

import (
	"encoding/binary"
)

// PixelFormat selects the wire pixel layout the panel expects. This is a
// bit-exact compatibility boundary: the payload must match the controller's
// configured pixel format byte for byte.
type PixelFormat int

const (
	// PixelFormatRGB565 sends each pixel as a big-endian 16-bit RGB565
	// word. This is the 16-bit interface mode most panels run in.
	PixelFormatRGB565 PixelFormat = iota
	// PixelFormatRGB666 sends each pixel as three bytes with 6 significant
	// bits per channel, for panels wired in 18-bit color mode. The 5-bit
	// red and blue channels are widened by replicating their top bit.
	PixelFormatRGB666
)

// bytesPerPixel is the wire cost of one pixel in this format.
func (f PixelFormat) bytesPerPixel() int {
	if f == PixelFormatRGB666 {
		return 3
	}
	return 2
}

// packSpan builds the wire payload for one span, row by row, honoring the
// ragged right edge of the final row. As each row is packed the previously
// displayed buffer is updated in place for exactly the covered columns, so
// later diffs compare against what was actually transmitted.
func (d *Dev) packSpan(s *span) []byte {
	out := make([]byte, s.size*d.pixfmt.bytesPerPixel())
	o := 0
	for y := s.y; y < s.endY; y++ {
		endX := s.endX
		if y+1 == s.endY {
			endX = s.lastScanEndX
		}
		row := d.fb.Row(y)[s.x:endX]
		if d.pixfmt == PixelFormatRGB666 {
			o += packRGB666(out[o:], row)
		} else {
			o += packRGB565BE(out[o:], row)
		}
		copy(d.prev.Row(y)[s.x:endX], row)
	}
	return out[:o]
}

// packRGB565BE byte-swaps a run of RGB565 pixels into big-endian wire order.
// Even runs go two pixels at a time as one 32-bit store; a leftover odd pixel
// is swapped individually. Both paths produce identical bytes.
func packRGB565BE(dst []byte, src []uint16) int {
	o := 0
	i := 0
	for ; i+2 <= len(src); i += 2 {
		binary.BigEndian.PutUint32(dst[o:], uint32(src[i])<<16|uint32(src[i+1]))
		o += 4
	}
	if i < len(src) {
		binary.BigEndian.PutUint16(dst[o:], src[i])
		o += 2
	}
	return o
}

// packRGB666 widens RGB565 pixels to the 18-bit three-byte layout. The 6
// significant bits of each output byte sit in the high positions; red and
// blue replicate their top bit into the bit created by the 5→6 widening.
func packRGB666(dst []byte, src []uint16) int {
	o := 0
	for _, p := range src {
		r := byte(p>>8) & 0xF8
		g := byte(p>>3) & 0xFC
		b := byte(p<<3) & 0xF8
		dst[o] = r | r>>5
		dst[o+1] = g
		dst[o+2] = b | b>>5
		o += 3
	}
	return o
}
