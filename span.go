package ili9341

// span is a rectangle of changed pixels covering rows [y, endY) and columns
// [x, endX). The final row may end early at lastScanEndX, which allows the
// last scanline of a merged multi-row span to keep a ragged right edge.
// size is the exact number of pixels covered.
type span struct {
	y            int
	endY         int
	x            int
	endX         int
	lastScanEndX int
	size         int
}

// spanList is an arena for one frame's worth of spans. It is reused across
// frames to avoid per-frame allocation and keeps spans ordered by ascending
// y, then x.
type spanList struct {
	spans []span
}

func (l *spanList) reset() {
	l.spans = l.spans[:0]
}

func (l *spanList) add(s span) {
	l.spans = append(l.spans, s)
}

// merge combines spans on adjacent scanlines that share identical column
// bounds into multi-row spans. Two spans merge only when the lower one starts
// exactly on the row where the upper one ends and both cover the same
// [x, endX) range; a ragged last row blocks further extension upward but is
// carried forward as the merged span's own last row. The covered pixel set is
// never altered, only the number of spans.
//
// Only called for progressive updates; interlaced fields keep per-row spans.
func (l *spanList) merge() {
	spans := l.spans
	out := 0
	for i := 0; i < len(spans); i++ {
		if spans[i].size < 0 {
			continue // already absorbed into an earlier span
		}
		s := spans[i]
		// Try to extend s downward one row at a time. Candidates are
		// strictly ahead in the list since it is sorted by row.
		for j := i + 1; j < len(spans); j++ {
			if spans[j].y > s.endY {
				break
			}
			if spans[j].size < 0 || spans[j].y != s.endY {
				continue
			}
			if spans[j].x != s.x || spans[j].endX != s.endX {
				continue
			}
			if s.lastScanEndX != s.endX {
				// The current last row is ragged; growing past it
				// would misrepresent the middle rows.
				break
			}
			s.endY = spans[j].endY
			s.lastScanEndX = spans[j].lastScanEndX
			s.size += spans[j].size
			spans[j].size = -1
		}
		spans[out] = s
		out++
	}
	l.spans = spans[:out]
}
