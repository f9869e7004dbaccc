package ili9341

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"
	"time"

	xdraw "golang.org/x/image/draw"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ili9341/image16bit"
)

// ILI9341 command opcodes used on the wire. Each task the driver queues is
// one opcode byte followed by its parameter payload.
const (
	cmdSoftReset              = 0x01
	cmdSleepIn                = 0x10
	cmdSleepOut               = 0x11
	cmdGammaSet               = 0x26
	cmdDisplayOff             = 0x28
	cmdDisplayOn              = 0x29
	cmdColumnAddressSet       = 0x2A // "set column window" / "move column cursor"
	cmdPageAddressSet         = 0x2B // "set row window" / "move row cursor"
	cmdMemoryWrite            = 0x2C // "write pixels"
	cmdMemoryAccessControl    = 0x36
	cmdPixelFormatSet         = 0x3A
	cmdFrameRateControl       = 0xB1
	cmdDisplayFunctionControl = 0xB6
	cmdPowerControl1          = 0xC0
	cmdPowerControl2          = 0xC1
	cmdVCOMControl1           = 0xC5
	cmdVCOMControl2           = 0xC7
	cmdPositiveGamma          = 0xE0
	cmdNegativeGamma          = 0xE1
)

// MADCTL bits.
const (
	madctlMY  = 0x80 // row address order
	madctlMX  = 0x40 // column address order
	madctlMV  = 0x20 // row/column exchange
	madctlBGR = 0x08 // BGR subpixel order
)

// DefaultOpts is the recommended default options: a portrait 240x320 panel
// updated adaptively over a 32MHz bus.
var DefaultOpts = Opts{
	W:            240,
	H:            320,
	Speed:        32 * physic.MegaHertz,
	PixelFormat:  PixelFormatRGB565,
	UpdateMode:   UpdateAdaptive,
	TargetFPS:    60,
	UpdateBudget: 1500 * time.Millisecond,
	QueueDepth:   4096,
	BGR:          true,
}

// Opts is the configuration for the ILI9341 display.
type Opts struct {
	// Display dimensions in pixels as wired. W > H selects landscape
	// addressing automatically.
	W int
	H int

	// Speed is the SPI bus clock. The estimated per-byte transfer time
	// that drives the interlacing decision and backpressure pacing is
	// derived from it.
	Speed physic.Frequency

	// PixelFormat is the wire format the panel is configured for.
	PixelFormat PixelFormat

	// UpdateMode selects adaptive, always-progressive or always-interlaced
	// updates.
	UpdateMode UpdateMode

	// CoarseDiff compares pixels four at a time where the framebuffer
	// geometry allows it, trading a little extra transfer for faster
	// diffing. Incompatible geometry silently falls back to exact diffing.
	CoarseDiff bool

	// WidenSmallSpans grows single-pixel spans to two pixels so every
	// pixel payload is at least 4 bytes. Needed when the transfer path
	// cannot handle tiny DMA bursts.
	WidenSmallSpans bool

	// TargetFPS caps the refresh rate the bandwidth budget is computed
	// for. The effective rate is the lower of this and the measured source
	// content rate.
	TargetFPS int

	// UpdateBudget is the estimated bus transfer time the driver may
	// spend per second of content before dropping to interlaced updates.
	UpdateBudget time.Duration

	// QueueDepth is the capacity, in tasks, of the transfer queue.
	QueueDepth int

	// Rotated determines if the display is rotated by 180°.
	Rotated bool

	// BGR corresponds to the panel's subpixel order. Most ILI9341 modules
	// are wired BGR.
	BGR bool

	// ColOffset and RowOffset shift the addressable window inside the
	// controller RAM for panels that do not start at (0, 0).
	ColOffset int
	RowOffset int

	// Optional hardware reset pin.
	RST gpio.PinIO
	// Optional backlight pin, switched on after init and off on Halt.
	BL gpio.PinOut

	// Log receives driver diagnostics. nil discards them.
	Log LogSink
}

// Dev is the device handle for the ILI9341 display.
//
// All drawing methods must be called from a single goroutine; the only
// concurrency inside the driver is the transfer goroutine draining the task
// queue, which shares nothing with the producer side except the queue
// cursors and finished task payloads.
type Dev struct {
	// Communication
	c         conn.Conn
	dc        gpio.PinOut
	rst       gpio.PinIO
	bl        gpio.PinOut
	maxTxSize int

	// Display geometry
	rect image.Rectangle
	geom geometry

	// Configuration resolved at init
	pixfmt       PixelFormat
	coarse       bool
	widenSmall   bool
	usecsPerByte float64
	log          LogSink

	// Pixel buffers: fb is the snapshot of the incoming frame, prev holds
	// exactly what has been transmitted to the panel.
	fb      *image16bit.RGB565
	prev    *image16bit.RGB565
	scratch *image16bit.RGB565

	// Per-frame pipeline state
	spans      spanList
	policy     updatePolicy
	cursor     cursor
	hist       *frameHistory
	interlaced bool // previous frame used an interlaced update

	// Transfer queue and frame boundary marks within it
	queue        *taskQueue
	prevFrameEnd uint32
	curFrameEnd  uint32

	running atomic.Bool
	wake    chan struct{}
	drained chan struct{}
}

var errNotReady = errors.New("ili9341: not initialised")

// NewSPI creates a new ILI9341 device connected via SPI.
//
// The SPI port is configured for Mode0 (CPOL=0, CPHA=0), 8-bit transfers at
// opts.Speed. The dc (Data/Command) GPIO pin must be provided and configured
// as an output.
//
// opts can be nil to use DefaultOpts (portrait 240x320).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}

	if opts.W <= 0 || opts.W > 320 {
		return nil, errors.New("ili9341: width must be between 1 and 320")
	}
	if opts.H <= 0 || opts.H > 320 {
		return nil, errors.New("ili9341: height must be between 1 and 320")
	}
	if opts.W*opts.H > 240*320 {
		return nil, errors.New("ili9341: dimensions exceed 240x320 controller RAM")
	}
	speed := opts.Speed
	if speed == 0 {
		speed = DefaultOpts.Speed
	}
	targetFPS := opts.TargetFPS
	if targetFPS <= 0 {
		targetFPS = DefaultOpts.TargetFPS
	}
	budget := opts.UpdateBudget
	if budget <= 0 {
		budget = DefaultOpts.UpdateBudget
	}
	depth := opts.QueueDepth
	if depth <= 0 {
		depth = DefaultOpts.QueueDepth
	}
	if depth < 16 {
		return nil, errors.New("ili9341: queue depth must be at least 16")
	}

	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}

	sink := opts.Log
	if sink == nil {
		sink = nopSink{}
	}

	rect := image.Rect(0, 0, opts.W, opts.H)
	// Row stride padded so the coarse diff preconditions can hold and
	// two-pixel packing never straddles a row.
	stride := (opts.W + coarseDiffAlign - 1) &^ (coarseDiffAlign - 1)

	d := &Dev{
		c:            c,
		dc:           dc,
		rst:          opts.RST,
		bl:           opts.BL,
		rect:         rect,
		geom:         geometry{panel: rect, colOff: opts.ColOffset, rowOff: opts.RowOffset},
		pixfmt:       opts.PixelFormat,
		coarse:       opts.CoarseDiff,
		widenSmall:   opts.WidenSmallSpans,
		usecsPerByte: 8e6 / float64(speed/physic.Hertz),
		log:          sink,
		fb:           image16bit.NewWithStride(rect, stride),
		prev:         image16bit.NewWithStride(rect, stride),
		scratch:      image16bit.New(rect),
		hist:         newFrameHistory(time.Second, 240),
		queue:        newTaskQueue(depth),
		wake:         make(chan struct{}, 1),
		drained:      make(chan struct{}),
	}
	d.policy = updatePolicy{
		mode:          opts.UpdateMode,
		usecsPerByte:  d.usecsPerByte,
		bytesPerPixel: d.pixfmt.bytesPerPixel(),
		rowOverhead:   opts.H * 2,
		budgetUsecs:   float64(budget / time.Microsecond),
		targetFPS:     float64(targetFPS),
	}
	// clearRAM during init sets the column window to the full panel width
	// and the row window to the full height; this is the one point where a
	// full-width belief is true without having queued a window command.
	d.cursor = cursor{y: -1, x: -1, endX: opts.W}
	if limits, ok := c.(conn.Limits); ok {
		d.maxTxSize = limits.MaxTxSize()
	}

	d.log.Logf(LevelInfo, "LCD driver starting")
	if err := d.init(opts); err != nil {
		return nil, err
	}

	d.running.Store(true)
	go d.drain()
	d.log.Logf(LevelDebug, "all initialised, transfer loop running")
	return d, nil
}

// init resets the controller and sends the initialization sequence, then
// clears the RAM so the panel matches the zeroed previous-frame buffer.
func (d *Dev) init(opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ili9341: failed to pull RST low: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9341: failed to pull RST high: %w", err)
		}
		time.Sleep(120 * time.Millisecond)
	}

	madctl := byte(madctlMX)
	if opts.W > opts.H {
		madctl = madctlMV
	}
	if opts.Rotated {
		madctl ^= madctlMX | madctlMY
	}
	if opts.BGR {
		madctl |= madctlBGR
	}
	pixfmt := byte(0x55) // 16 bits per pixel
	if opts.PixelFormat == PixelFormatRGB666 {
		pixfmt = 0x66
	}

	seq := []struct {
		cmd   byte
		data  []byte
		delay time.Duration
	}{
		{cmd: cmdSoftReset, delay: 5 * time.Millisecond},
		{cmd: cmdPowerControl1, data: []byte{0x23}},
		{cmd: cmdPowerControl2, data: []byte{0x10}},
		{cmd: cmdVCOMControl1, data: []byte{0x3E, 0x28}},
		{cmd: cmdVCOMControl2, data: []byte{0x86}},
		{cmd: cmdMemoryAccessControl, data: []byte{madctl}},
		{cmd: cmdPixelFormatSet, data: []byte{pixfmt}},
		{cmd: cmdFrameRateControl, data: []byte{0x00, 0x18}},
		{cmd: cmdDisplayFunctionControl, data: []byte{0x08, 0x82, 0x27}},
		{cmd: cmdGammaSet, data: []byte{0x01}},
		{cmd: cmdPositiveGamma, data: []byte{
			0x0F, 0x31, 0x2B, 0x0C, 0x0E, 0x08, 0x4E, 0xF1,
			0x37, 0x07, 0x10, 0x03, 0x0E, 0x09, 0x00}},
		{cmd: cmdNegativeGamma, data: []byte{
			0x00, 0x0E, 0x14, 0x03, 0x11, 0x07, 0x31, 0xC1,
			0x48, 0x08, 0x0F, 0x0C, 0x31, 0x36, 0x0F}},
		{cmd: cmdSleepOut, delay: 120 * time.Millisecond},
		{cmd: cmdDisplayOn},
	}
	for _, s := range seq {
		if err := d.sendCommand(s.cmd); err != nil {
			return err
		}
		if len(s.data) > 0 {
			if err := d.sendData(s.data); err != nil {
				return err
			}
		}
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
	}

	if err := d.clearRAM(); err != nil {
		return err
	}

	if d.bl != nil {
		if err := d.bl.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9341: failed to switch backlight on: %w", err)
		}
	}
	return nil
}

// clearRAM blanks the addressable window and leaves the row window spanning
// the full panel height, which is what the cursor tracker assumes: row
// positioning afterwards only ever moves the start row.
func (d *Dev) clearRAM() error {
	w, h := d.rect.Dx(), d.rect.Dy()
	if err := d.sendCommand(cmdColumnAddressSet); err != nil {
		return err
	}
	if err := d.sendData(window16(d.geom.colOff, d.geom.colOff+w-1)); err != nil {
		return err
	}
	if err := d.sendCommand(cmdPageAddressSet); err != nil {
		return err
	}
	if err := d.sendData(window16(d.geom.rowOff, d.geom.rowOff+h-1)); err != nil {
		return err
	}
	if err := d.sendCommand(cmdMemoryWrite); err != nil {
		return err
	}
	return d.sendData(make([]byte, w*h*d.pixfmt.bytesPerPixel()))
}

// Refresh snapshots one full-size source frame and sends the minimal update
// to the panel. forceFull forces a progressive update, used for guaranteed
// full redraws such as after the source resolution changed.
//
// The frame must match the configured dimensions exactly; a mismatch is
// reported, never silently truncated.
func (d *Dev) Refresh(src *image16bit.RGB565, forceFull bool) error {
	if !d.running.Load() {
		d.log.Logf(LevelWarn, "LCD not initialised before trying to draw")
		return errNotReady
	}
	if src.Rect.Dx() != d.rect.Dx() || src.Rect.Dy() != d.rect.Dy() {
		return fmt.Errorf("ili9341: source frame is %dx%d, display is %dx%d",
			src.Rect.Dx(), src.Rect.Dy(), d.rect.Dx(), d.rect.Dy())
	}

	wasInterlaced := d.interlaced

	// Keep at most two rendered frames in the queue pending transfer.
	// If the transfer side is further behind, sleep away part of the
	// estimated drain time. Only part: oversleeping the whole estimate
	// would miss the arrival of the next source frame.
	if d.queue.spanExceeds(d.prevFrameEnd) {
		est := d.queue.drainEstimate(d.usecsPerByte)
		if est > 0 {
			if est > time.Millisecond {
				d.log.Logf(LevelWarn, "potentially too much work in transfer queue (est %v)", est)
			}
			time.Sleep(est * 2 / 5)
		}
	}

	now := time.Now()
	d.hist.prune(now)

	// Snapshot the source. The copy is deliberate: prev must keep exactly
	// what the panel shows, so buffers are never pointer-swapped. Row
	// addressing is relative to the source's own bounds, which need not
	// start at (0, 0).
	h := d.rect.Dy()
	for y := 0; y < h; y++ {
		copy(d.fb.Row(y), src.Row(src.Rect.Min.Y+y))
	}

	changed := countChangedPixels(d.fb, d.prev)
	contentFPS, _ := d.hist.estimate()
	interlaced := d.policy.decide(changed, d.queue.queuedBytes(), contentFPS, forceFull)
	d.interlaced = interlaced

	d.spans.reset()
	if changed > 0 || wasInterlaced {
		if d.coarse && canDiffCoarse(d.fb) {
			diffCoarse4(d.fb, d.prev, interlaced, d.policy.parity, &d.spans)
		} else {
			diffExact(d.fb, d.prev, interlaced, d.policy.parity, &d.spans)
		}
	}
	if !interlaced {
		d.spans.merge()
	}

	spans := d.spans.spans
	if len(spans) == 0 {
		// Static content: nothing queued, frame rate history untouched.
		return nil
	}
	d.hist.add(now, interlaced)

	if d.widenSmall {
		d.widenSmallSpans(spans)
	}

	for i := range spans {
		s := &spans[i]
		if !d.positionFor(s, spans[i+1:]) {
			break
		}
		if !d.pushTask(task{cmd: cmdMemoryWrite, data: d.packSpan(s)}) {
			d.cursor.invalidate()
			break
		}
	}

	// Remember where this frame ends in the queue so the next call can
	// tell how many frames are still in flight.
	d.prevFrameEnd = d.curFrameEnd
	d.curFrameEnd = d.queue.tail.Load()
	return nil
}

// widenSmallSpans grows single-pixel spans to two pixels so every pixel
// payload is at least two pixels long.
func (d *Dev) widenSmallSpans(spans []span) {
	w := d.rect.Dx()
	for i := range spans {
		s := &spans[i]
		if s.size != 1 {
			continue
		}
		if s.endX < w {
			s.endX++
			s.lastScanEndX++
		} else {
			s.x--
		}
		s.size++
	}
}

// pushTask commits one wire task and wakes the transfer goroutine. A full
// queue is a backpressure failure the pacing should have prevented; the
// frame degrades (remaining tasks dropped) rather than blocking or
// overwriting unconsumed slots.
func (d *Dev) pushTask(t task) bool {
	if !d.queue.push(t) {
		d.log.Logf(LevelWarn, "transfer queue full, dropping rest of frame")
		return false
	}
	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// drain is the transfer goroutine. It is the sole consumer of the task
// queue: one opcode byte with DC low, then the payload with DC high. It
// keeps going until production has stopped and the queue is empty, so
// requested work is never discarded.
func (d *Dev) drain() {
	defer close(d.drained)
	for {
		t, ok := d.queue.peek()
		if !ok {
			if !d.running.Load() {
				return
			}
			select {
			case <-d.wake:
			case <-time.After(time.Millisecond):
			}
			continue
		}
		if err := d.sendCommand(t.cmd); err != nil {
			d.log.Logf(LevelError, "command %#02x failed: %v", t.cmd, err)
		} else if len(t.data) > 0 {
			if err := d.sendData(t.data); err != nil {
				d.log.Logf(LevelError, "payload for %#02x failed: %v", t.cmd, err)
			}
		}
		d.queue.release()
	}
}

// Flush blocks until every queued task has been transferred.
func (d *Dev) Flush() {
	for d.queue.pending() > 0 {
		time.Sleep(100 * time.Microsecond)
	}
}

// sendCommand sends a single command byte with the DC pin low.
func (d *Dev) sendCommand(cmd byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx([]byte{cmd}, nil)
}

// sendData sends payload bytes with the DC pin high, chunked to the
// connection's transfer size limit.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	if d.maxTxSize <= 0 {
		return d.c.Tx(data, nil)
	}
	for len(data) > 0 {
		n := len(data)
		if n > d.maxTxSize {
			n = d.maxTxSize
		}
		if err := d.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Write writes a full frame of raw big-endian RGB565 pixel data to the
// display as a forced progressive update. The data must be exactly
// width*height*2 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if !d.running.Load() {
		return 0, errNotReady
	}
	w, h := d.rect.Dx(), d.rect.Dy()
	if len(pixels) != w*h*2 {
		return 0, errors.New("ili9341: invalid buffer size")
	}
	for y := 0; y < h; y++ {
		row := d.scratch.Row(y)
		o := y * w * 2
		for x := 0; x < w; x++ {
			row[x] = uint16(pixels[o])<<8 | uint16(pixels[o+1])
			o += 2
		}
	}
	if err := d.Refresh(d.scratch, true); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Draw draws an image onto the display. The dst rectangle specifies the
// destination region on the panel and sp the origin within src, following
// the conventions of draw.Draw. Only the pixels that actually changed are
// transferred. It implements display.Drawer.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if !d.running.Load() {
		return errNotReady
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}
	draw.Draw(d.scratch, dst, src, sp, draw.Src)
	return d.Refresh(d.scratch, false)
}

// DrawScaled scales src to the largest centered aspect-preserving region of
// the panel and updates the display. Sources already matching the panel
// dimensions map pixel for pixel. Use this for content whose resolution does
// not match the panel, such as emulator framebuffers.
func (d *Dev) DrawScaled(src image.Image) error {
	if !d.running.Load() {
		return errNotReady
	}
	sr := src.Bounds()
	if sr.Dx() == d.rect.Dx() && sr.Dy() == d.rect.Dy() {
		return d.Draw(d.rect, src, sr.Min)
	}
	dst := d.geom.scaleRect(sr)
	if dst.Empty() {
		return nil
	}
	xdraw.NearestNeighbor.Scale(d.scratch, dst, src, sr, xdraw.Src, nil)
	return d.Refresh(d.scratch, false)
}

// DrawCentered draws src on the panel pixel for pixel, centered. Sources
// larger than the panel are cropped symmetrically. Use this instead of
// DrawScaled when content must keep its native resolution.
func (d *Dev) DrawCentered(src image.Image) error {
	if !d.running.Load() {
		return errNotReady
	}
	dst, sr := d.geom.place(src.Bounds())
	if dst.Empty() {
		return nil
	}
	draw.Draw(d.scratch, dst, src, sr.Min, draw.Src)
	return d.Refresh(d.scratch, false)
}

// Stats reports the driver's recent activity. Call it from the same
// goroutine that drives updates.
type Stats struct {
	// Frames is the number of updates submitted within the recency window.
	Frames int
	// Interlaced is how many of those touched only one scanline field.
	Interlaced int
	// ContentFPS is the measured source frame rate, 0 when not yet known.
	ContentFPS float64
	// QueuedBytes is the payload volume awaiting transfer.
	QueuedBytes int64
	// PendingTasks is the number of unconsumed tasks in the queue.
	PendingTasks int
}

// Stats returns a snapshot of recent driver activity.
func (d *Dev) Stats() Stats {
	d.hist.prune(time.Now())
	fps, _ := d.hist.estimate()
	return Stats{
		Frames:       d.hist.len(),
		Interlaced:   d.hist.interlaced(),
		ContentFPS:   fps,
		QueuedBytes:  d.queue.queuedBytes(),
		PendingTasks: d.queue.pending(),
	}
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image16bit.RGB565Model
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Halt stops production, waits for queued work to be transferred, powers the
// display off and releases the pixel buffers. The device cannot be used
// afterwards; re-create it to re-initialize the display.
func (d *Dev) Halt() error {
	if !d.running.Swap(false) {
		return nil
	}
	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.drained

	var err error
	if e := d.sendCommand(cmdDisplayOff); e != nil {
		err = e
	}
	if e := d.sendCommand(cmdSleepIn); e != nil && err == nil {
		err = e
	}
	if d.bl != nil {
		if e := d.bl.Out(gpio.Low); e != nil && err == nil {
			err = e
		}
	}
	d.fb = nil
	d.prev = nil
	d.scratch = nil
	d.log.Logf(LevelInfo, "LCD driver quitting")
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ili9341.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

var _ display.Drawer = &Dev{}
