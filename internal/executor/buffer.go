package executor

import (
	"bytes"
	"sync"
)

// cappedBuffer keeps at most limit bytes. The first write past the limit marks the
// buffer as overflowed and fires onOverflow so the producing process can be stopped.
type cappedBuffer struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	limit      int
	overflowed bool
	onOverflow func()
}

func newCappedBuffer(limit int, onOverflow func()) *cappedBuffer {
	return &cappedBuffer{limit: limit, onOverflow: onOverflow}
}

func (cb *cappedBuffer) Write(p []byte) (int, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.overflowed {
		return len(p), nil // discard silently
	}

	remaining := cb.limit - cb.buf.Len()
	if len(p) > remaining {
		if remaining > 0 {
			cb.buf.Write(p[:remaining])
		}
		cb.overflowed = true
		if cb.onOverflow != nil {
			cb.onOverflow()
		}
		return len(p), nil
	}

	return cb.buf.Write(p)
}

func (cb *cappedBuffer) String() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.buf.String()
}

// Overflowed reports whether the producer wrote more than the limit.
func (cb *cappedBuffer) Overflowed() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.overflowed
}
