package cache

import (
	"context"
	"time"
)

type noopService struct {
}

// NewNoop never finds anything. It is used when no redis is configured.
func NewNoop() IService {
	return &noopService{}
}

func (svc *noopService) Get(_ context.Context, _ string) (float64, bool, error) {
	return 0, false, nil
}

func (svc *noopService) Set(_ context.Context, _ string, _ float64, _ time.Duration) error {
	return nil
}

func (svc *noopService) Close() error {
	return nil
}
