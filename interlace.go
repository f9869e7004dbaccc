package ili9341

// UpdateMode selects the frame update strategy.
type UpdateMode int

const (
	// UpdateAdaptive chooses per frame between progressive and interlaced
	// updates based on the estimated transfer time. This is the default.
	UpdateAdaptive UpdateMode = iota
	// UpdateProgressive always updates the full frame.
	UpdateProgressive
	// UpdateInterlaced always updates alternating scanline fields whenever
	// there are changed pixels.
	UpdateInterlaced
)

// assumedContentFPS is used for the bandwidth budget until the frame history
// has measured the real source rate. Deliberately pessimistic so a fast
// source does not overcommit the bus on its first frames.
const assumedContentFPS = 120

// updatePolicy decides, once per frame, whether to update progressively or
// one interlaced field, and which field. The estimate errs on the side of
// interlacing: an interlaced field that turns out cheap costs one extra
// frame of latency, while an overcommitted progressive update stalls the
// queue for every following frame.
type updatePolicy struct {
	mode UpdateMode

	// parity is the scanline field (0 even, 1 odd) the next interlaced
	// update targets. It toggles only when an interlaced frame is chosen,
	// so two consecutive interlaced updates cover the full frame.
	parity int

	usecsPerByte  float64
	bytesPerPixel int
	rowOverhead   int     // command overhead bytes charged per frame
	budgetUsecs   float64 // transfer time usable per second of content
	targetFPS     float64
}

// decide returns true when this frame should be interlaced. contentFPS is the
// measured source rate, or 0 when unknown. queuedBytes is the payload volume
// already sitting in the task queue awaiting transfer.
func (p *updatePolicy) decide(changedPixels int, queuedBytes int64, contentFPS float64, forceFull bool) bool {
	interlaced := false
	switch p.mode {
	case UpdateProgressive:
		interlaced = false
	case UpdateInterlaced:
		interlaced = changedPixels > 0
	default:
		if contentFPS <= 0 {
			contentFPS = assumedContentFPS
		}
		fps := contentFPS
		if p.targetFPS < fps {
			fps = p.targetFPS
		}
		if fps < 1 {
			fps = 1
		}
		budget := p.budgetUsecs / fps
		bytesToSend := int64(changedPixels*p.bytesPerPixel + p.rowOverhead)
		estimated := float64(bytesToSend+queuedBytes) * p.usecsPerByte
		interlaced = estimated > budget
	}
	if forceFull {
		interlaced = false
	}
	if interlaced {
		p.parity = 1 - p.parity
	}
	return interlaced
}
