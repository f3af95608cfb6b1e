package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
)

func sampleLoan() *domain.Loan {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return &domain.Loan{
		ID:              "loan-1",
		BorrowerName:    "Ivan",
		Amount:          decimal.NewFromInt(100000),
		RatePercent:     decimal.NewFromInt(12),
		TermMonths:      1,
		Frequency:       domain.FrequencyMonthly,
		StartDate:       start,
		Status:          domain.LoanStatusActive,
		PeriodicPayment: decimal.NewFromInt(101000),
		TotalRepayment:  decimal.NewFromInt(101000),
		RemainingAmount: decimal.NewFromInt(101000),
		Schedule: []domain.ScheduleItem{
			{Number: 1, DueDate: start.AddDate(0, 1, 0), Amount: decimal.NewFromInt(101000), Status: domain.ScheduleStatusUpcoming},
		},
		CreatedAt: start,
		UpdatedAt: start,
	}
}

func TestRedisLoanCache_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisLoanCache(db, time.Hour)
	loan := sampleLoan()

	data, _ := json.Marshal(loan)
	mock.ExpectSet(LoanKey("loan-1"), data, time.Hour).SetVal("OK")

	assert.NoError(t, cache.Set(context.Background(), loan))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLoanCache_Get(t *testing.T) {
	t.Run("hit", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := NewRedisLoanCache(db, time.Hour)
		loan := sampleLoan()

		data, _ := json.Marshal(loan)
		mock.ExpectGet(LoanKey("loan-1")).SetVal(string(data))

		got, ok, err := cache.Get(context.Background(), "loan-1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "loan-1", got.ID)
		assert.True(t, got.RemainingAmount.Equal(loan.RemainingAmount))
		require.Len(t, got.Schedule, 1)
		assert.Equal(t, "loan-1", got.Schedule[0].LoanID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := NewRedisLoanCache(db, time.Hour)

		mock.ExpectGet(LoanKey("loan-2")).RedisNil()

		got, ok, err := cache.Get(context.Background(), "loan-2")
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := NewRedisLoanCache(db, time.Hour)

		mock.ExpectGet(LoanKey("loan-3")).SetErr(errors.New("connection refused"))

		_, ok, err := cache.Get(context.Background(), "loan-3")
		var be *customError.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, customError.ErrCodeCacheError, be.Code)
		assert.False(t, ok)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		cache := NewRedisLoanCache(db, time.Hour)

		mock.ExpectGet(LoanKey("loan-4")).SetVal("{not json")

		_, _, err := cache.Get(context.Background(), "loan-4")
		assert.Error(t, err)
	})
}

func TestRedisLoanCache_Invalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisLoanCache(db, time.Hour)

	mock.ExpectDel(LoanKey("loan-1")).SetVal(1)
	assert.NoError(t, cache.Invalidate(context.Background(), "loan-1"))

	mock.ExpectDel(LoanKey("loan-1")).SetErr(redis.ErrClosed)
	assert.Error(t, cache.Invalidate(context.Background(), "loan-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoopLoanCache(t *testing.T) {
	cache := NewNoopLoanCache()
	ctx := context.Background()

	assert.NoError(t, cache.Set(ctx, sampleLoan()))
	got, ok, err := cache.Get(ctx, "loan-1")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, cache.Invalidate(ctx, "loan-1"))
}
