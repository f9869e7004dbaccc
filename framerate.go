package ili9341

import (
	"time"
)

// frameSample records one source frame arrival and whether the resulting
// update was interlaced. Samples are kept only for reporting and adaptive
// decisions, never for correctness.
type frameSample struct {
	t          time.Time
	interlaced bool
}

// frameHistory is an age-bounded record of recent frame arrivals. It doubles
// as the frame-arrival histogram used to estimate the live content frame rate
// and as the recency window behind Stats().
type frameHistory struct {
	samples []frameSample
	maxAge  time.Duration
	max     int
}

func newFrameHistory(maxAge time.Duration, max int) *frameHistory {
	return &frameHistory{maxAge: maxAge, max: max}
}

// prune drops every sample older than maxAge relative to now.
func (h *frameHistory) prune(now time.Time) {
	expired := 0
	for expired < len(h.samples) && now.Sub(h.samples[expired].t) >= h.maxAge {
		expired++
	}
	if expired > 0 {
		n := copy(h.samples, h.samples[expired:])
		h.samples = h.samples[:n]
	}
}

// add records a new arrival, pruning expired samples first.
func (h *frameHistory) add(t time.Time, interlaced bool) {
	h.prune(t)
	if len(h.samples) < h.max {
		h.samples = append(h.samples, frameSample{t: t, interlaced: interlaced})
	}
}

func (h *frameHistory) len() int {
	return len(h.samples)
}

// span is the time covered by the retained samples.
func (h *frameHistory) span() time.Duration {
	if len(h.samples) < 2 {
		return 0
	}
	return h.samples[len(h.samples)-1].t.Sub(h.samples[0].t)
}

func (h *frameHistory) interlaced() int {
	n := 0
	for _, s := range h.samples {
		if s.interlaced {
			n++
		}
	}
	return n
}

// estimate returns the measured content frame rate. ok is false until enough
// samples have accumulated over a meaningful time span to trust the figure.
func (h *frameHistory) estimate() (fps float64, ok bool) {
	if len(h.samples) < 4 {
		return 0, false
	}
	span := h.span()
	if span < 10*time.Millisecond {
		return 0, false
	}
	return float64(len(h.samples)-1) / span.Seconds(), true
}
