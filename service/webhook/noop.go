package webhook

import (
	"context"
)

type noopService struct{}

// NewNoop discards every payload.
func NewNoop() IService {
	return noopService{}
}

func (noopService) Post(_ context.Context, _ map[string]interface{}) error {
	return nil
}
