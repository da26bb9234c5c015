package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/service/cache"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
	"github.com/khaledhikmat/nsfw-go/service/metrics"
	"golang.org/x/sync/singleflight"
)

// cachedService memoizes scores by content digest. Concurrent requests for
// the same bytes share one classifier call. Cache failures are logged and
// fall through to the classifier.
type cachedService struct {
	next    IService
	cache   cache.IService
	ttl     time.Duration
	metrics *metrics.Metrics
	group   singleflight.Group
}

func NewCached(next IService, cacheSvc cache.IService, ttl time.Duration, m *metrics.Metrics) IService {
	return &cachedService{
		next:    next,
		cache:   cacheSvc,
		ttl:     ttl,
		metrics: m,
	}
}

func Digest(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

func (svc *cachedService) Score(ctx context.Context, image []byte) (float64, error) {
	digest := Digest(image)

	score, found, err := svc.cache.Get(ctx, digest)
	switch {
	case err != nil:
		svc.metrics.IncCacheLookup("error")
		lgr.Logger.Warn("score cache lookup failed", slog.String("digest", digest), slog.Any("error", err))
	case found:
		svc.metrics.IncCacheLookup("hit")
		return score, nil
	default:
		svc.metrics.IncCacheLookup("miss")
	}

	// The flight outlives any single caller: a caller that goes away must not
	// fail the others waiting on the same digest.
	flightCtx := context.WithoutCancel(ctx)
	flight := svc.group.DoChan(digest, func() (interface{}, error) {
		start := time.Now()
		s, err := svc.next.Score(flightCtx, image)
		svc.metrics.InferenceDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return 0.0, err
		}

		if err := svc.cache.Set(flightCtx, digest, s, svc.ttl); err != nil {
			lgr.Logger.Warn("score cache store failed", slog.String("digest", digest), slog.Any("error", err))
		}
		return s, nil
	})

	select {
	case <-ctx.Done():
		return 0, &model.ClassificationError{Reason: ctx.Err().Error()}
	case res := <-flight:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	}
}

func (svc *cachedService) Close() error {
	return svc.next.Close()
}
