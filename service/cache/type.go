package cache

import (
	"context"
	"time"
)

// IService stores classifier scores keyed by a content digest.
// Get reports found=false on a miss.
type IService interface {
	Get(ctx context.Context, digest string) (score float64, found bool, err error)
	Set(ctx context.Context, digest string, score float64, ttl time.Duration) error
	Close() error
}
