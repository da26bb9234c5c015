package video

import (
	"context"
	"sync"
)

// Scripted serves fixed frames at a fixed frame rate and counts how many
// frames were decoded and encoded.
type Scripted struct {
	Rate    float64
	Frames  [][]byte
	OpenErr error
	ReadErr error

	mu      sync.Mutex
	decoded int
	encoded int
	closed  bool
}

func NewScripted(fps float64, frames ...[]byte) *Scripted {
	return &Scripted{Rate: fps, Frames: frames}
}

func (svc *Scripted) Open(ctx context.Context, _ string) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if svc.OpenErr != nil {
		return nil, svc.OpenErr
	}
	return &scriptedStream{svc: svc, pos: -1}, nil
}

func (svc *Scripted) Decoded() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.decoded
}

func (svc *Scripted) Encoded() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.encoded
}

func (svc *Scripted) Closed() bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.closed
}

type scriptedStream struct {
	svc *Scripted
	pos int
}

func (s *scriptedStream) FPS() float64 {
	return s.svc.Rate
}

func (s *scriptedStream) Next() bool {
	if s.pos+1 >= len(s.svc.Frames) {
		return false
	}
	s.pos++

	s.svc.mu.Lock()
	s.svc.decoded++
	s.svc.mu.Unlock()
	return true
}

func (s *scriptedStream) Frame() ([]byte, error) {
	s.svc.mu.Lock()
	s.svc.encoded++
	s.svc.mu.Unlock()
	return s.svc.Frames[s.pos], nil
}

func (s *scriptedStream) Err() error {
	return s.svc.ReadErr
}

func (s *scriptedStream) Close() error {
	s.svc.mu.Lock()
	s.svc.closed = true
	s.svc.mu.Unlock()
	return nil
}
