// Package buffer provides a ring buffer for recent protocol frame caching.
package buffer

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Direction tags a frame as outbound or inbound relative to the client.
type Direction string

const (
	Send Direction = "send"
	Recv Direction = "recv"
)

// Frame is one captured wire frame with its capture time.
type Frame struct {
	At   time.Time
	Dir  Direction
	Data []byte
}

// FrameRing is a thread-safe circular buffer that stores the most recent
// frames up to a fixed count. When the ring is full, the oldest frame is
// discarded to make room for new frames.
//
// The client records every frame it sends and receives here, so the recent
// wire history is available after a failed or timed-out command.
type FrameRing struct {
	mu     sync.RWMutex
	frames []Frame
	start  int
	count  int
}

// NewFrameRing creates a FrameRing holding up to capacity frames.
// The capacity must be greater than 0; if not, it defaults to 1.
func NewFrameRing(capacity int) *FrameRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &FrameRing{frames: make([]Frame, capacity)}
}

// Record appends a frame, discarding the oldest if the ring is full.
// The data is copied, so callers may reuse their slice.
func (r *FrameRing) Record(dir Direction, data []byte) {
	if len(data) == 0 {
		return
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f := Frame{At: time.Now(), Dir: dir, Data: cp}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count < len(r.frames) {
		r.frames[(r.start+r.count)%len(r.frames)] = f
		r.count++
		return
	}
	r.frames[r.start] = f
	r.start = (r.start + 1) % len(r.frames)
}

// Frames returns a copy of the buffered frames, oldest first.
// The returned slices are safe to use without holding the lock.
func (r *FrameRing) Frames() []Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}
	out := make([]Frame, r.count)
	for i := 0; i < r.count; i++ {
		f := r.frames[(r.start+i)%len(r.frames)]
		data := make([]byte, len(f.Data))
		copy(data, f.Data)
		out[i] = Frame{At: f.At, Dir: f.Dir, Data: data}
	}
	return out
}

// Clear removes all frames from the ring.
func (r *FrameRing) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.start = 0
	r.count = 0
}

// Len returns the current number of buffered frames.
func (r *FrameRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.count
}

// Cap returns the maximum number of frames the ring holds.
func (r *FrameRing) Cap() int {
	return len(r.frames)
}

// Dump writes the buffered frames to w, one line per frame, timestamped and
// tagged with the direction (">>" outbound, "<<" inbound).
func (r *FrameRing) Dump(w io.Writer) error {
	for _, f := range r.Frames() {
		tag := ">>"
		if f.Dir == Recv {
			tag = "<<"
		}
		if _, err := fmt.Fprintf(w, "%s %s %s\n", f.At.Format("15:04:05.000"), tag, f.Data); err != nil {
			return err
		}
	}
	return nil
}
