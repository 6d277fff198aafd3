package services

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/daily-lotto-settlement/internal/metrics"
	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
)

var _ PoolService = (*PoolServiceImpl)(nil)

// PoolServiceImpl keeps the per-day collections and the pooled balances.
// Balances only change through CreditPurchase, MaterializeDay, RefillFromReserves,
// prize distribution and claims.
type PoolServiceImpl struct {
	store *repositories.Store
	rules Rules
	now   Clock
}

// NewPoolService creates a new PoolServiceImpl
func NewPoolService(store *repositories.Store, rules Rules, now Clock) *PoolServiceImpl {
	return &PoolServiceImpl{store: store, rules: rules, now: clockOrDefault(now)}
}

// CreditPurchase adds a ticket payment to the day's pool and reserve portions. Days whose pools
// were already materialized (a recovered draw reopens its day) are credited straight into the
// balances so nothing is left behind.
func (s *PoolServiceImpl) CreditPurchase(ctx context.Context, dayNum int64, amount int64) error {
	if amount <= 0 {
		return nil
	}
	now := s.now()
	day, err := findOrNewDay(ctx, s.store, dayNum, now)
	if err != nil {
		return err
	}
	pool, reserve := s.rules.splitPurchase(amount)
	day.TotalCollected += amount
	day.PoolPortion += pool
	day.ReservePortion += reserve
	day.UpdatedAt = now

	if day.PoolsCredited {
		if err := s.addToBalances(ctx, pool, reserve); err != nil {
			return err
		}
	}
	if err := s.store.Days.Save(ctx, day); err != nil {
		return fmt.Errorf("failed to save day %d: %w", dayNum, err)
	}
	return nil
}

// MaterializeDay moves the day's collected portions into the tier pools and reserves.
// It runs once per day; later calls are no-ops.
func (s *PoolServiceImpl) MaterializeDay(ctx context.Context, dayNum int64) (*models.GameDay, error) {
	now := s.now()
	day, err := findOrNewDay(ctx, s.store, dayNum, now)
	if err != nil {
		return nil, err
	}
	if day.PoolsCredited {
		return day, nil
	}
	if err := s.addToBalances(ctx, day.PoolPortion, day.ReservePortion); err != nil {
		return nil, err
	}
	day.PoolsCredited = true
	day.UpdatedAt = now
	if err := s.store.Days.Save(ctx, day); err != nil {
		return nil, fmt.Errorf("failed to save day %d: %w", dayNum, err)
	}
	slog.Info("Day pools materialized", "day", dayNum, "pool", day.PoolPortion, "reserve", day.ReservePortion)
	return day, nil
}

func (s *PoolServiceImpl) addToBalances(ctx context.Context, pool, reserve int64) error {
	balances, err := s.store.Balances.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load balances: %w", err)
	}
	p := s.rules.splitPool(pool)
	r := s.rules.splitReserve(reserve)
	balances.MainPools.First += p.First
	balances.MainPools.Second += p.Second
	balances.MainPools.Third += p.Third
	balances.MainPools.Development += p.Development
	balances.Reserves.First += r.First
	balances.Reserves.Second += r.Second
	balances.Reserves.Third += r.Third
	return s.saveBalances(ctx, balances)
}

// RefillFromReserves tops up every prize pool below its minimum from that tier's reserve and
// returns the amounts moved.
func (s *PoolServiceImpl) RefillFromReserves(ctx context.Context) (models.Reserves, error) {
	var moved models.Reserves
	settings, err := loadSettings(ctx, s.store, s.rules, s.now())
	if err != nil {
		return moved, err
	}
	balances, err := s.store.Balances.Get(ctx)
	if err != nil {
		return moved, fmt.Errorf("failed to load balances: %w", err)
	}
	for _, tier := range models.MonetaryTiers {
		minimum := s.rules.minPoolTickets(tier) * settings.TicketPrice
		pool := balances.MainPools.Pool(tier)
		if pool >= minimum {
			continue
		}
		amount := minimum - pool
		if reserve := balances.Reserves.Reserve(tier); reserve < amount {
			amount = reserve
		}
		if amount <= 0 {
			continue
		}
		balances.Reserves.Add(tier, -amount)
		balances.MainPools.Add(tier, amount)
		moved.Add(tier, amount)
	}
	if moved.Total() == 0 {
		return moved, nil
	}
	if err := s.saveBalances(ctx, balances); err != nil {
		return moved, err
	}
	slog.Info("Main pools refilled from reserves", "first", moved.First, "second", moved.Second, "third", moved.Third)
	return moved, nil
}

func (s *PoolServiceImpl) saveBalances(ctx context.Context, balances *models.Balances) error {
	balances.UpdatedAt = s.now()
	if err := s.store.Balances.Save(ctx, balances); err != nil {
		return fmt.Errorf("failed to save balances: %w", err)
	}
	return nil
}

// observe refreshes the pool gauges from committed state.
func (s *PoolServiceImpl) observe(ctx context.Context) {
	if b, err := s.store.Balances.Get(ctx); err == nil {
		metrics.ObserveBalances(b)
	}
}

// GetBalances returns a snapshot of every pooled amount.
func (s *PoolServiceImpl) GetBalances(ctx context.Context) (*models.Balances, error) {
	return s.store.Balances.Get(ctx)
}

// GetMainPoolBalances returns the main pools.
func (s *PoolServiceImpl) GetMainPoolBalances(ctx context.Context) (models.MainPools, error) {
	b, err := s.store.Balances.Get(ctx)
	if err != nil {
		return models.MainPools{}, err
	}
	return b.MainPools, nil
}

// GetReserveBalances returns the reserves.
func (s *PoolServiceImpl) GetReserveBalances(ctx context.Context) (models.Reserves, error) {
	b, err := s.store.Balances.Get(ctx)
	if err != nil {
		return models.Reserves{}, err
	}
	return b.Reserves, nil
}
