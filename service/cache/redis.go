package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/khaledhikmat/nsfw-go/service/config"
	"github.com/redis/go-redis/v9"
	"golang.org/x/xerrors"
)

const keyPrefix = "nsfw:score:"

type redisService struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, cfgSvc config.IService) (IService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfgSvc.GetRedisAddr(),
		Password: cfgSvc.GetRedisPassword(),
		DB:       cfgSvc.GetRedisDB(),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, xerrors.Errorf("redis ping %s: %w", cfgSvc.GetRedisAddr(), err)
	}

	return &redisService{
		client: client,
	}, nil
}

func (svc *redisService) Get(ctx context.Context, digest string) (float64, bool, error) {
	val, err := svc.client.Get(ctx, keyPrefix+digest).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, xerrors.Errorf("redis get: %w", err)
	}

	score, err := strconv.ParseFloat(val, 64)
	if err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set
		return 0, false, nil
	}
	return score, true, nil
}

func (svc *redisService) Set(ctx context.Context, digest string, score float64, ttl time.Duration) error {
	err := svc.client.Set(ctx, keyPrefix+digest, strconv.FormatFloat(score, 'g', -1, 64), ttl).Err()
	if err != nil {
		return xerrors.Errorf("redis set: %w", err)
	}
	return nil
}

func (svc *redisService) Close() error {
	return svc.client.Close()
}
