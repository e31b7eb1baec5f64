package services

import (
	"context"
	"time"
)

// TransactionRunner is the unit-of-work seam. The production implementation is
// pkg/database.MongoDB, which runs fn inside a multi-document transaction and
// threads the session through the context so repository calls join it. Each
// settlement-bearing operation opens exactly one unit of work; the settlement
// primitives never open their own.
type TransactionRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CacheService is the slice of pkg/cache.RedisCache the services consume.
// Implementations may be absent; callers treat a nil cache as always-miss.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
