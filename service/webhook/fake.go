package webhook

import (
	"context"
	"sync"
)

// Fake records every payload instead of posting it.
type Fake struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
}

func NewFake() *Fake {
	return &Fake{}
}

func (svc *Fake) Post(_ context.Context, payload map[string]interface{}) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.payloads = append(svc.payloads, payload)
	return nil
}

func (svc *Fake) Payloads() []map[string]interface{} {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]map[string]interface{}(nil), svc.payloads...)
}
