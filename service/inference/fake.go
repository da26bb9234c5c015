package inference

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/khaledhikmat/nsfw-go/model"
)

// fakeService derives a stable pseudo score from the content hash. It lets
// the service run end to end without model artifacts.
type fakeService struct {
}

func NewFake() IService {
	return &fakeService{}
}

func (svc *fakeService) Score(_ context.Context, image []byte) (float64, error) {
	if len(image) == 0 {
		return 0, &model.ClassificationError{Reason: "empty image"}
	}
	sum := sha256.Sum256(image)
	return float64(binary.BigEndian.Uint64(sum[:8])>>11) / float64(1<<53), nil
}

func (svc *fakeService) Close() error {
	return nil
}

// Scripted returns queued scores in call order and records every call.
// Once the script is exhausted it keeps returning Default.
type Scripted struct {
	mu      sync.Mutex
	scores  []float64
	errs    map[int]error
	calls   [][]byte
	Default float64
}

func NewScripted(scores ...float64) *Scripted {
	return &Scripted{scores: scores, errs: map[int]error{}}
}

// FailOn makes the n-th call (zero based) return err.
func (svc *Scripted) FailOn(n int, err error) *Scripted {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.errs[n] = err
	return svc
}

func (svc *Scripted) Score(_ context.Context, image []byte) (float64, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	n := len(svc.calls)
	svc.calls = append(svc.calls, image)

	if err, ok := svc.errs[n]; ok {
		return 0, err
	}
	if n < len(svc.scores) {
		return svc.scores[n], nil
	}
	return svc.Default, nil
}

func (svc *Scripted) Calls() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.calls)
}

// Inputs returns the bytes passed to each call.
func (svc *Scripted) Inputs() [][]byte {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([][]byte(nil), svc.calls...)
}

func (svc *Scripted) Close() error {
	return nil
}
