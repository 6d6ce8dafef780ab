// Package advisor generates personalized advice text by forwarding
// chat-completion streams from the AI upstream, with prompt building from
// live account data, a hard per-stream timeout and completed-advice history.
package advisor

import (
	"errors"
	"sync"
)

// Advice stream errors
var (
	// ErrUpstreamStream marks a stream that failed mid-flight. Terminal, the
	// caller gets no retry.
	ErrUpstreamStream = errors.New("advice upstream stream failed")

	// ErrUpstreamTimeout marks a stream cut off by the wall-clock budget
	ErrUpstreamTimeout = errors.New("advice stream timed out")
)

// StreamState is the lifecycle state of an advice stream
type StreamState int

const (
	// StateStreaming means chunks are still arriving
	StateStreaming StreamState = iota
	// StateCompleted means the upstream finished cleanly
	StateCompleted
	// StateFailed means the stream ended with an error
	StateFailed
	// StateTimedOut means the wall-clock budget elapsed first
	StateTimedOut
)

// String returns the state name
func (s StreamState) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// AdviceStream delivers advice text chunks in upstream order and settles in
// exactly one terminal state. Safe for one consumer; independent streams do
// not share anything.
type AdviceStream struct {
	chunks chan string
	done   chan struct{}

	mu    sync.Mutex
	state StreamState
	err   error
}

func newAdviceStream(buffer int) *AdviceStream {
	return &AdviceStream{
		chunks: make(chan string, buffer),
		done:   make(chan struct{}),
		state:  StateStreaming,
	}
}

// Chunks returns the ordered chunk channel. It is closed after the terminal
// state is recorded, so draining it and then calling Err or State is safe.
func (s *AdviceStream) Chunks() <-chan string {
	return s.chunks
}

// Wait blocks until the stream settles and returns the terminal state
func (s *AdviceStream) Wait() StreamState {
	<-s.done
	return s.State()
}

// State returns the current state without blocking
func (s *AdviceStream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error, nil while streaming or after completion
func (s *AdviceStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// finish records the terminal state. Only the first call wins.
func (s *AdviceStream) finish(state StreamState, err error) {
	s.mu.Lock()
	if s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.err = err
	s.mu.Unlock()
	close(s.done)
}
