// Package ili9341 controls an ILI9341 TFT panel via SPI with differential
// updates.
//
// The ILI9341 is a 262K-color TFT controller for panels up to 240×320
// pixels. SPI is slow relative to the pixel volume of a live video source,
// so this driver is built around minimizing bytes on the wire: it diffs each
// incoming frame against what the panel already shows, merges the changed
// regions into rectangles, positions the controller's write window with the
// fewest possible commands and, when even that is too much for the bus,
// falls back to updating alternating scanline fields.
//
// # Hardware Connection
//
// Connect the ILI9341 display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCK/CLK     → SPI Clock (SCLK)
//	SDI/MOSI    → SPI Data (MOSI)
//	DC          → GPIO (any available pin)
//	CS          → SPI Chip Select (or GND if always selected)
//	RESET       → Optional: GPIO for hardware reset
//	LED         → Optional: GPIO for backlight control
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/ili9341"
//		"periph.io/x/devices/v3/ili9341/image16bit"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		spiBus, _ := spireg.Open("")
//		dcPin := gpioreg.ByName("GPIO25")
//
//		dev, _ := ili9341.NewSPI(spiBus, dcPin, nil)
//		defer dev.Halt()
//
//		frame := image16bit.New(dev.Bounds())
//		for y := 0; y < 320; y++ {
//			for x := 0; x < 240; x++ {
//				frame.SetRGB565(x, y, image16bit.RGB565Color(x*y))
//			}
//		}
//		dev.Refresh(frame, false)
//	}
//
// # Update Pipeline
//
// Refresh is the once-per-source-frame entry point. Each call snapshots the
// frame, diffs it against the previously displayed contents, and queues the
// resulting window and pixel-write commands for the transfer goroutine. The
// diff produces per-scanline spans of changed pixels; on progressive updates
// spans on adjacent scanlines with identical column bounds are merged into
// multi-row rectangles so the window setup cost is paid once per rectangle
// instead of once per row.
//
// When the estimated transfer time of a frame (plus whatever is already
// queued) exceeds the per-frame budget, the driver updates only the even or
// odd scanlines and alternates the field on the next interlaced frame, so
// two consecutive interlaced updates cover the full frame. The budget is
// derived from Opts.UpdateBudget, Opts.TargetFPS and the measured source
// frame rate.
//
// The driver keeps at most two frames' worth of queued commands in flight.
// If the bus falls further behind, Refresh sleeps a fraction of the
// estimated drain time before producing more work, bounding both latency
// and memory.
//
// # Drawing Modes
//
// Refresh gives the driver a full-size RGB565 frame and is the cheapest
// path. Draw implements periph.io's display.Drawer for arbitrary images and
// partial updates. DrawScaled fits content of a different resolution onto
// the panel; DrawCentered places it pixel for pixel instead, centered and
// cropped. Write pushes a raw big-endian RGB565 frame and forces a full
// progressive update.
//
// # Wire Format
//
// Every queued task is one command opcode followed by its payload. Pixel
// payloads are big-endian RGB565 by default; panels strapped for 18-bit
// color can select PixelFormatRGB666, which widens each pixel to three
// bytes on the fly.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/ILI9341.pdf
//
// # Compatibility with periph.io
//
// Dev implements the display.Drawer interface from periph.io and can be
// used with any tool or library expecting one.
package ili9341
