package image16bit

import (
	"image"
	"image/color"
	"testing"
)

func TestRGB565ColorRGBA(t *testing.T) {
	tests := []struct {
		name    string
		c       RGB565Color
		r, g, b uint32
	}{
		{"black", 0x0000, 0x0000, 0x0000, 0x0000},
		{"white", 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF},
		{"pure red", 0xF800, 0xFFFF, 0x0000, 0x0000},
		{"pure green", 0x07E0, 0x0000, 0xFFFF, 0x0000},
		{"pure blue", 0x001F, 0x0000, 0x0000, 0xFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.c.RGBA()
			if r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("RGBA() = (%#x, %#x, %#x), want (%#x, %#x, %#x)", r, g, b, tt.r, tt.g, tt.b)
			}
			if a != 0xFFFF {
				t.Errorf("alpha = %#x, want 0xFFFF", a)
			}
		})
	}
}

func TestToRGB565(t *testing.T) {
	tests := []struct {
		name string
		c    color.Color
		want RGB565Color
	}{
		{"black", color.RGBA{0, 0, 0, 255}, 0x0000},
		{"white", color.RGBA{255, 255, 255, 255}, 0xFFFF},
		{"red", color.RGBA{255, 0, 0, 255}, 0xF800},
		{"green", color.RGBA{0, 255, 0, 255}, 0x07E0},
		{"blue", color.RGBA{0, 0, 255, 255}, 0x001F},
		{"already RGB565", RGB565Color(0x1234), 0x1234},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToRGB565(tt.c); got != tt.want {
				t.Errorf("ToRGB565() = %#04x, want %#04x", got, tt.want)
			}
		})
	}
}

func TestRGB565RoundTrip(t *testing.T) {
	// Converting an RGB565 value to RGBA and back must be lossless.
	for _, c := range []RGB565Color{0x0000, 0xFFFF, 0xF800, 0x07E0, 0x001F, 0x1234, 0xABCD} {
		if got := RGB565Model.Convert(c).(RGB565Color); got != c {
			t.Errorf("round trip of %#04x = %#04x", c, got)
		}
	}
}

func TestNewWithStride(t *testing.T) {
	img := NewWithStride(image.Rect(0, 0, 6, 4), 8)
	if img.Stride != 8 {
		t.Errorf("Stride = %d, want 8", img.Stride)
	}
	if len(img.Pix) != 8*4 {
		t.Errorf("len(Pix) = %d, want %d", len(img.Pix), 8*4)
	}

	// Setting a pixel lands at the padded offset.
	img.SetRGB565(5, 2, 0xBEEF)
	if img.Pix[2*8+5] != 0xBEEF {
		t.Errorf("Pix[2*8+5] = %#04x, want 0xBEEF", img.Pix[2*8+5])
	}
	if got := img.RGB565At(5, 2); got != 0xBEEF {
		t.Errorf("RGB565At(5, 2) = %#04x, want 0xBEEF", got)
	}
}

func TestNewWithStrideTooSmall(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for stride < width")
		}
	}()
	NewWithStride(image.Rect(0, 0, 8, 4), 4)
}

func TestSetOutOfBounds(t *testing.T) {
	img := New(image.Rect(0, 0, 4, 4))
	img.SetRGB565(-1, 0, 0xFFFF)
	img.SetRGB565(0, 4, 0xFFFF)
	img.SetRGB565(4, 0, 0xFFFF)
	for i, p := range img.Pix {
		if p != 0 {
			t.Fatalf("Pix[%d] = %#04x after out-of-bounds writes", i, p)
		}
	}
	if got := img.RGB565At(-1, -1); got != 0 {
		t.Errorf("RGB565At(-1, -1) = %#04x, want 0", got)
	}
}

func TestRow(t *testing.T) {
	img := NewWithStride(image.Rect(0, 0, 4, 2), 6)
	img.SetRGB565(0, 1, 0x0001)
	img.SetRGB565(3, 1, 0x0002)

	row := img.Row(1)
	if len(row) != 4 {
		t.Fatalf("len(Row(1)) = %d, want 4", len(row))
	}
	if row[0] != 0x0001 || row[3] != 0x0002 {
		t.Errorf("Row(1) = %v", row)
	}
}
