package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
)

const loanKeyPrefix = "lending:loan:"

// LoanCache keeps serialized loan snapshots keyed by loan id.
type LoanCache interface {
	// Get returns the cached loan, or false when it is not cached
	Get(ctx context.Context, loanID string) (*domain.Loan, bool, error)
	Set(ctx context.Context, loan *domain.Loan) error
	Invalidate(ctx context.Context, loanID string) error
}

func LoanKey(loanID string) string {
	return loanKeyPrefix + loanID
}

type redisLoanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLoanCache(client *redis.Client, ttl time.Duration) LoanCache {
	return &redisLoanCache{client: client, ttl: ttl}
}

func (c *redisLoanCache) Get(ctx context.Context, loanID string) (*domain.Loan, bool, error) {
	data, err := c.client.Get(ctx, LoanKey(loanID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, customError.WrapCacheError(err)
	}

	var loan domain.Loan
	if err := json.Unmarshal(data, &loan); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached loan: %w", err)
	}
	loan.Schedule = withLoanID(loan.Schedule, loan.ID)

	return &loan, true, nil
}

func (c *redisLoanCache) Set(ctx context.Context, loan *domain.Loan) error {
	data, err := json.Marshal(loan)
	if err != nil {
		return fmt.Errorf("failed to marshal loan: %w", err)
	}

	if err := c.client.Set(ctx, LoanKey(loan.ID), data, c.ttl).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

func (c *redisLoanCache) Invalidate(ctx context.Context, loanID string) error {
	if err := c.client.Del(ctx, LoanKey(loanID)).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

// schedule items do not carry the loan id in JSON
func withLoanID(items []domain.ScheduleItem, loanID string) []domain.ScheduleItem {
	for i := range items {
		items[i].LoanID = loanID
	}
	return items
}

type noopLoanCache struct{}

// NewNoopLoanCache returns a cache that never holds anything. Used when
// redis is disabled.
func NewNoopLoanCache() LoanCache {
	return noopLoanCache{}
}

func (noopLoanCache) Get(context.Context, string) (*domain.Loan, bool, error) { return nil, false, nil }
func (noopLoanCache) Set(context.Context, *domain.Loan) error                  { return nil }
func (noopLoanCache) Invalidate(context.Context, string) error                 { return nil }
