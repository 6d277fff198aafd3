package keeper

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/services"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/vrf"
)

var (
	ErrKeeperStarted = errors.New("keeper already started")
	ErrKeeperStopped = errors.New("keeper already stopped")
)

// Draws is the part of the draw scheduler the keeper drives.
type Draws interface {
	CheckUpkeep(ctx context.Context) (*models.UpkeepCheck, error)
	PerformUpkeep(ctx context.Context, performData string) (*models.UpkeepResult, error)
	OnRandomnessFulfilled(ctx context.Context, requestID string, words []*big.Int) (*models.GameDay, error)
}

// Distributor finishes days whose distribution failed after the draw.
type Distributor interface {
	RetryPendingDistributions(ctx context.Context) ([]int64, error)
}

// Config tunes the keeper loop.
type Config struct {
	// Schedule is a cron spec, e.g. "@every 30s".
	Schedule string
	LockTTL  time.Duration
	// MaxFulfillmentAttempts bounds how often a fulfillment for an unknown request is retried.
	MaxFulfillmentAttempts int
	DistributionRetries    uint64
}

func (c Config) withDefaults() Config {
	if c.Schedule == "" {
		c.Schedule = "@every 30s"
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 20 * time.Second
	}
	if c.MaxFulfillmentAttempts <= 0 {
		c.MaxFulfillmentAttempts = 10
	}
	if c.DistributionRetries == 0 {
		c.DistributionRetries = 3
	}
	return c
}

type deferredFulfillment struct {
	vrf.Fulfillment
	attempts int
}

// Keeper polls the upkeep predicate on a cron schedule and applies randomness fulfillments.
// Ticks and fulfillments are handled on one goroutine, so the scheduler never sees two
// operations from the same keeper at once.
type Keeper struct {
	draws        Draws
	distributor  Distributor
	fulfillments <-chan vrf.Fulfillment
	lock         Lock
	cfg          Config

	mu       sync.Mutex
	working  bool
	cancel   context.CancelFunc
	done     chan struct{}
	ticks    chan struct{}
	deferred []deferredFulfillment
}

// New creates a keeper. fulfillments may be nil when randomness arrives through the API only.
func New(draws Draws, distributor Distributor, fulfillments <-chan vrf.Fulfillment, lock Lock, cfg Config) *Keeper {
	if lock == nil {
		lock = LocalLock{}
	}
	return &Keeper{
		draws:        draws,
		distributor:  distributor,
		fulfillments: fulfillments,
		lock:         lock,
		cfg:          cfg.withDefaults(),
		ticks:        make(chan struct{}, 1),
	}
}

// Start runs the loop in the background until Stop is called or ctx ends.
func (k *Keeper) Start(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.working {
		return ErrKeeperStarted
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(k.cfg.Schedule, k.signal); err != nil {
		return fmt.Errorf("invalid keeper schedule %q: %w", k.cfg.Schedule, err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	k.cancel = cancel
	k.done = make(chan struct{})
	k.working = true

	c.Start()
	go func() {
		defer close(k.done)
		k.run(loopCtx)
		<-c.Stop().Done()
	}()
	slog.Info("Keeper started", "schedule", k.cfg.Schedule)
	return nil
}

// Stop ends the loop and waits for it to exit.
func (k *Keeper) Stop() error {
	k.mu.Lock()
	if !k.working {
		k.mu.Unlock()
		return ErrKeeperStopped
	}
	k.working = false
	cancel, done := k.cancel, k.done
	k.mu.Unlock()

	cancel()
	<-done
	slog.Info("Keeper stopped")
	return nil
}

// signal queues a tick; ticks arriving while one is queued are coalesced.
func (k *Keeper) signal() {
	select {
	case k.ticks <- struct{}{}:
	default:
	}
}

func (k *Keeper) run(ctx context.Context) {
	fulfillments := k.fulfillments
	for {
		select {
		case <-ctx.Done():
			return
		case <-k.ticks:
			k.tick(ctx)
		case f, ok := <-fulfillments:
			if !ok {
				fulfillments = nil
				continue
			}
			k.fulfill(ctx, deferredFulfillment{Fulfillment: f})
		}
	}
}

// tick runs one automation round under the lease.
func (k *Keeper) tick(ctx context.Context) {
	acquired, err := k.lock.Acquire(ctx, k.cfg.LockTTL)
	if err != nil {
		slog.Error("Keeper lease unavailable", "error", err)
		return
	}
	if !acquired {
		slog.Debug("Keeper lease held elsewhere, skipping tick")
		return
	}
	defer func() {
		if err := k.lock.Release(context.Background()); err != nil {
			slog.Warn("Failed to release keeper lease", "error", err)
		}
	}()

	k.retryDeferred(ctx)
	k.upkeep(ctx)
	k.retryDistributions(ctx)
}

func (k *Keeper) upkeep(ctx context.Context) {
	check, err := k.draws.CheckUpkeep(ctx)
	if err != nil {
		slog.Error("Upkeep check failed", "error", err)
		return
	}
	if !check.Needed {
		slog.Debug("Upkeep not needed", "reason", check.Reason)
		return
	}
	if _, err := k.draws.PerformUpkeep(ctx, check.PerformData); err != nil {
		if errors.Is(err, services.ErrUpkeepNotNeeded) {
			slog.Debug("Upkeep raced with another caller", "error", err)
			return
		}
		slog.Error("Perform upkeep failed", "error", err, "targetDay", check.TargetDay)
	}
}

func (k *Keeper) fulfill(ctx context.Context, f deferredFulfillment) {
	f.attempts++
	_, err := k.draws.OnRandomnessFulfilled(ctx, f.RequestID, f.RandomWords)
	switch {
	case err == nil:
		return
	case services.KindOf(err) == services.KindTiming:
		// Already applied, or the request was abandoned.
		slog.Info("Fulfillment ignored", "requestId", f.RequestID, "reason", err)
		return
	case services.KindOf(err) == services.KindValidation:
		slog.Error("Fulfillment rejected", "requestId", f.RequestID, "error", err)
		return
	}
	// Not found happens when the request's upkeep has not committed yet.
	if f.attempts >= k.cfg.MaxFulfillmentAttempts {
		slog.Error("Dropping fulfillment after retries", "requestId", f.RequestID, "attempts", f.attempts, "error", err)
		return
	}
	slog.Warn("Fulfillment deferred", "requestId", f.RequestID, "attempts", f.attempts, "error", err)
	k.deferred = append(k.deferred, f)
}

func (k *Keeper) retryDeferred(ctx context.Context) {
	pending := k.deferred
	k.deferred = nil
	for _, f := range pending {
		k.fulfill(ctx, f)
	}
}

func (k *Keeper) retryDistributions(ctx context.Context) {
	if k.distributor == nil {
		return
	}
	op := func() error {
		done, err := k.distributor.RetryPendingDistributions(ctx)
		if len(done) > 0 {
			slog.Info("Pending distributions completed", "days", done)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), k.cfg.DistributionRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		slog.Error("Pending distributions still failing", "error", err)
	}
}
