package render

// FrameScheduler is the host's "run this before the next repaint" facility.
// At most one frame is pending at a time; a new request replaces the old one.
type FrameScheduler interface {
	RequestFrame(fn func())
	CancelFrame()
}

// FrameQueue is a single pending-frame slot. Hosts with their own repaint tick
// (a terminal program, a game loop) call Flush once per tick.
type FrameQueue struct {
	pending func()
}

// RequestFrame stores fn as the pending frame.
func (q *FrameQueue) RequestFrame(fn func()) {
	q.pending = fn
}

// CancelFrame drops the pending frame, if any.
func (q *FrameQueue) CancelFrame() {
	q.pending = nil
}

// Pending reports whether a frame is waiting.
func (q *FrameQueue) Pending() bool {
	return q.pending != nil
}

// Flush runs the pending frame and reports whether there was one. The slot is
// emptied before the frame runs so the frame can request its successor.
func (q *FrameQueue) Flush() bool {
	fn := q.pending
	if fn == nil {
		return false
	}
	q.pending = nil
	fn()
	return true
}
