package ili9341

import (
	"testing"
)

// testPolicy models a 240x320 RGB565 panel on a 32MHz bus with the default
// 1.5s/s budget at 60fps.
func testPolicy(mode UpdateMode) updatePolicy {
	return updatePolicy{
		mode:          mode,
		usecsPerByte:  8e6 / 32e6,
		bytesPerPixel: 2,
		rowOverhead:   320 * 2,
		budgetUsecs:   1.5e6,
		targetFPS:     60,
	}
}

func TestPolicyAdaptiveThreshold(t *testing.T) {
	// At 60fps the per-frame budget is 25000us, or 100000 bytes at
	// 0.25us/byte. A full 240x320 frame (154240 bytes with row overhead)
	// must interlace; a small change must not.
	p := testPolicy(UpdateAdaptive)
	if !p.decide(240*320, 0, 60, false) {
		t.Error("full-frame change not interlaced")
	}
	p = testPolicy(UpdateAdaptive)
	if p.decide(100, 0, 60, false) {
		t.Error("100-pixel change interlaced")
	}
}

func TestPolicyQueuedBytesCountAgainstBudget(t *testing.T) {
	// A change that fits on its own no longer fits once the queue already
	// holds most of the budget.
	p := testPolicy(UpdateAdaptive)
	changed := 40000 // 80640 bytes with overhead, inside the 100000 budget
	if p.decide(changed, 0, 60, false) {
		t.Fatal("change interlaced with empty queue")
	}
	if !p.decide(changed, 90000, 60, false) {
		t.Error("change not interlaced with 90000 bytes queued")
	}
}

func TestPolicyUnknownContentRateIsPessimistic(t *testing.T) {
	// With no measured rate the budget assumes a fast source. The target
	// rate is lifted above the assumption so the assumption is what caps
	// the budget.
	changed := 40000
	p := testPolicy(UpdateAdaptive)
	p.targetFPS = 240
	if p.decide(changed, 0, 60, false) {
		t.Fatal("change interlaced at measured 60fps")
	}
	p = testPolicy(UpdateAdaptive)
	p.targetFPS = 240
	if !p.decide(changed, 0, 0, false) {
		t.Error("change not interlaced with unknown content rate")
	}
}

func TestPolicyTargetFPSCapsContentRate(t *testing.T) {
	// A source slower than targetFPS gets the larger per-frame budget.
	p := testPolicy(UpdateAdaptive)
	p.targetFPS = 10
	// 150000us per frame at 10fps = 600000 bytes.
	if p.decide(240*320, 0, 60, false) {
		t.Error("full frame interlaced despite 10fps budget")
	}
}

func TestPolicyForceFullOverrides(t *testing.T) {
	p := testPolicy(UpdateAdaptive)
	if p.decide(240*320, 0, 60, true) {
		t.Error("forceFull frame interlaced")
	}
	p = testPolicy(UpdateInterlaced)
	if p.decide(240*320, 0, 60, true) {
		t.Error("forceFull frame interlaced in UpdateInterlaced mode")
	}
}

func TestPolicyFixedModes(t *testing.T) {
	p := testPolicy(UpdateProgressive)
	if p.decide(240*320, 1<<20, 60, false) {
		t.Error("UpdateProgressive interlaced")
	}

	p = testPolicy(UpdateInterlaced)
	if !p.decide(1, 0, 60, false) {
		t.Error("UpdateInterlaced did not interlace a change")
	}
	if p.decide(0, 0, 60, false) {
		t.Error("UpdateInterlaced interlaced with no changes")
	}
}

func TestPolicyParityTogglesOnlyWhenInterlaced(t *testing.T) {
	p := testPolicy(UpdateAdaptive)

	// Progressive decisions leave parity alone.
	p.decide(100, 0, 60, false)
	if p.parity != 0 {
		t.Fatalf("parity = %d after progressive frame", p.parity)
	}

	// Consecutive interlaced decisions alternate the field, so two of
	// them cover the full frame.
	if !p.decide(240*320, 0, 60, false) {
		t.Fatal("expected interlaced")
	}
	first := p.parity
	if !p.decide(240*320, 0, 60, false) {
		t.Fatal("expected interlaced")
	}
	if p.parity == first {
		t.Error("parity did not alternate between interlaced frames")
	}

	p.decide(100, 0, 60, false)
	if p.parity == first {
		t.Error("parity moved on a progressive frame")
	}
}
