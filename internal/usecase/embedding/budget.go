// Package embedding guards the paid embedding provider with a token budget.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/db"
	"github.com/kailas-cloud/grantmatch/internal/domain"
)

// Action defines behavior when the token budget is exhausted.
type Action string

const (
	// ActionWarn logs and lets the request through.
	ActionWarn Action = "warn"
	// ActionReject fails the request with domain.ErrEmbeddingBudgetExceeded.
	ActionReject Action = "reject"
)

// Counter TTLs outlive their period so a restart late in the day still sees today's usage.
const (
	dailyKeyTTL   = 48 * time.Hour
	monthlyKeyTTL = 62 * 24 * time.Hour
)

// CounterStore persists usage counters (ISP over the index KV store).
type CounterStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}

// Budget tracks daily and monthly token usage for one provider.
// Check is in-memory; Record updates memory first, then writes through to the store.
// A zero limit means unlimited.
type Budget struct {
	mu           sync.Mutex
	provider     string
	dailyLimit   int64
	monthlyLimit int64
	action       Action
	dailyUsed    int64
	monthlyUsed  int64
	day          time.Time
	month        time.Time
	store        CounterStore
	now          func() time.Time
	logger       *zap.Logger
}

// BudgetOption configures a Budget.
type BudgetOption func(*Budget)

// WithCounterStore attaches persistent counters shared across replicas.
func WithCounterStore(s CounterStore) BudgetOption {
	return func(b *Budget) { b.store = s }
}

// WithClock replaces time.Now, used by tests to cross day and month boundaries.
func WithClock(now func() time.Time) BudgetOption {
	return func(b *Budget) { b.now = now }
}

// NewBudget creates a budget for the provider.
func NewBudget(provider string, dailyLimit, monthlyLimit int64, action Action, logger *zap.Logger, opts ...BudgetOption) *Budget {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Budget{
		provider:     provider,
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	now := b.now().UTC()
	b.day, b.month = truncateToDay(now), truncateToMonth(now)
	return b
}

// Load reads the current period's counters from the store.
// Failures leave the in-memory counters at zero.
func (b *Budget) Load(ctx context.Context) {
	if b.store == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now().UTC()
	if v, err := b.loadCounter(ctx, b.dailyKey(now)); err != nil {
		b.logger.Warn("Failed to load daily token usage", zap.Error(err))
	} else {
		b.dailyUsed = v
	}
	if v, err := b.loadCounter(ctx, b.monthlyKey(now)); err != nil {
		b.logger.Warn("Failed to load monthly token usage", zap.Error(err))
	} else {
		b.monthlyUsed = v
	}
}

func (b *Budget) loadCounter(ctx context.Context, key string) (int64, error) {
	data, err := b.store.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

// Check reports whether another request fits the budget.
func (b *Budget) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	exhausted := (b.dailyLimit > 0 && b.dailyUsed >= b.dailyLimit) ||
		(b.monthlyLimit > 0 && b.monthlyUsed >= b.monthlyLimit)
	if !exhausted {
		return nil
	}
	if b.action == ActionReject {
		return domain.ErrEmbeddingBudgetExceeded
	}
	b.logger.Warn("Embedding token budget exhausted",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.dailyLimit),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.monthlyLimit),
	)
	return nil
}

// Record adds consumed tokens.
func (b *Budget) Record(ctx context.Context, tokens int64) {
	if tokens <= 0 {
		return
	}
	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	now := b.now().UTC()
	b.mu.Unlock()

	if b.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if _, err := b.store.IncrBy(ctx, b.dailyKey(now), tokens, dailyKeyTTL); err != nil {
		b.logger.Warn("Failed to persist daily token usage", zap.Error(err))
	}
	if _, err := b.store.IncrBy(ctx, b.monthlyKey(now), tokens, monthlyKeyTTL); err != nil {
		b.logger.Warn("Failed to persist monthly token usage", zap.Error(err))
	}
}

// RemainingDaily returns tokens left today, -1 when unlimited.
func (b *Budget) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return remaining(b.dailyLimit, b.dailyUsed)
}

// RemainingMonthly returns tokens left this month, -1 when unlimited.
func (b *Budget) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return remaining(b.monthlyLimit, b.monthlyUsed)
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

// rollover zeroes counters when the day or month changes. Caller holds mu.
func (b *Budget) rollover() {
	now := b.now().UTC()
	if d := truncateToDay(now); d.After(b.day) {
		b.dailyUsed = 0
		b.day = d
	}
	if m := truncateToMonth(now); m.After(b.month) {
		b.monthlyUsed = 0
		b.month = m
	}
}

func (b *Budget) dailyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", domain.KeyPrefix, b.provider, t.Format(time.DateOnly))
}

func (b *Budget) monthlyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", domain.KeyPrefix, b.provider, t.Format("2006-01"))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
