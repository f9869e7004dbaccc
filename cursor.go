package ili9341

// cursor mirrors what the display controller's write cursor and column
// window are believed to be. It is a cache, not ground truth: nothing here
// queries the controller, so anything that resets the chip outside the
// driver must be followed by an invalidate() to force the next commands out
// unconditionally.
type cursor struct {
	y    int // row of the last positioning command, -1 when unknown
	x    int // column window start, -1 when unknown
	endX int // column window end (exclusive)
}

// invalidate forgets all believed state. The controller's real window is
// whatever the last transmitted command set, so every field drops to the
// sentinel and the next spans position unconditionally, including a full
// 4-byte column window command.
func (c *cursor) invalidate() {
	c.y = -1
	c.x = -1
	c.endX = -1
}

// positionFor emits the minimal command sequence that readies the controller
// for writing span s, comparing only against believed state. rest holds the
// spans still to come this frame; a single-row span peeks ahead to the next
// multi-row span so the column window can be widened once instead of twice.
// Returns false if the task queue rejected a command, in which case believed
// state is invalidated.
func (d *Dev) positionFor(s *span, rest []span) bool {
	c := &d.cursor
	g := d.geom

	if c.y != s.y {
		if !d.pushTask(task{cmd: cmdPageAddressSet, data: coord16(g.rowOff + s.y)}) {
			c.invalidate()
			return false
		}
		c.y = s.y
	}

	if s.endY > s.y+1 {
		// Multi-row spans wrap at the column window edges, so the window
		// must cover exactly [x, endX).
		if c.x != s.x || c.endX != s.endX {
			if !d.pushTask(task{cmd: cmdColumnAddressSet, data: window16(g.colOff+s.x, g.colOff+s.endX-1)}) {
				c.invalidate()
				return false
			}
			c.x = s.x
			c.endX = s.endX
		}
		return true
	}

	// Single-row spans never wrap, so any window at least as wide as the
	// span will do.
	if c.endX < s.endX {
		// The window must grow. Peek at the next multi-row span: if its
		// right edge also fits, set the window there now and save a
		// command later.
		nextEndX := g.panel.Dx()
		for i := range rest {
			if rest[i].endY > rest[i].y+1 {
				if rest[i].endX >= s.endX {
					nextEndX = rest[i].endX
				}
				break
			}
		}
		if !d.pushTask(task{cmd: cmdColumnAddressSet, data: window16(g.colOff+s.x, g.colOff+nextEndX-1)}) {
			c.invalidate()
			return false
		}
		c.x = s.x
		c.endX = nextEndX
	} else if c.x != s.x {
		if !d.pushTask(task{cmd: cmdColumnAddressSet, data: coord16(g.colOff + s.x)}) {
			c.invalidate()
			return false
		}
		c.x = s.x
	}
	return true
}

// coord16 encodes a single start coordinate, leaving the window end where the
// controller already has it.
func coord16(v int) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

// window16 encodes an inclusive start/end coordinate pair.
func window16(start, end int) []byte {
	return []byte{byte(start >> 8), byte(start), byte(end >> 8), byte(end)}
}
