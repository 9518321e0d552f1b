package cache

import (
	"context"
	"time"

	"tagihin/backend/internal/domain"
)

type StatsCache interface {
	Get(ctx context.Context, key string) (*domain.BillingStats, bool, error)
	Set(ctx context.Context, key string, value *domain.BillingStats, ttl time.Duration) error
}

type NoopStatsCache struct{}

func (NoopStatsCache) Get(_ context.Context, _ string) (*domain.BillingStats, bool, error) {
	return nil, false, nil
}

func (NoopStatsCache) Set(_ context.Context, _ string, _ *domain.BillingStats, _ time.Duration) error {
	return nil
}
