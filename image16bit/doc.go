// Package image16bit implements RGB565 in terms of the image.Image interface,
// along with a framebuffer layout suitable for feeding 16-bit SPI TFT
// controllers.
//
// # Memory Layout
//
// Pixels are stored one uint16 per pixel in row-major order. The row stride is
// expressed in pixels and may exceed the image width; drivers pad rows so bulk
// comparisons and transfers stay aligned.
//
// # Color Conversion
//
// Standard Go colors are converted with simple truncation: the top 5/6/5 bits
// of each 8-bit channel are kept. Expanding back to RGBA replicates the top
// bits of each channel into the low bits so that full white maps to full white.
package image16bit
