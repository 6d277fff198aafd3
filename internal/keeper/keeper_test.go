package keeper

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories/memory"
	"github.com/ArowuTest/daily-lotto-settlement/internal/services"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/token"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/vrf"
)

type fakeDraws struct {
	mu          sync.Mutex
	needed      bool
	checks      int
	performs    int
	fulfilled   []string
	fulfillErrs []error
}

func (f *fakeDraws) CheckUpkeep(context.Context) (*models.UpkeepCheck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return &models.UpkeepCheck{Needed: f.needed, PerformData: "00"}, nil
}

func (f *fakeDraws) PerformUpkeep(context.Context, string) (*models.UpkeepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.performs++
	f.needed = false
	return &models.UpkeepResult{}, nil
}

func (f *fakeDraws) OnRandomnessFulfilled(_ context.Context, requestID string, _ []*big.Int) (*models.GameDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fulfilled = append(f.fulfilled, requestID)
	if len(f.fulfillErrs) > 0 {
		err := f.fulfillErrs[0]
		f.fulfillErrs = f.fulfillErrs[1:]
		return nil, err
	}
	return &models.GameDay{}, nil
}

func (f *fakeDraws) counts() (checks, performs, fulfilled int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks, f.performs, len(f.fulfilled)
}

type fakeDistributor struct {
	calls int
	errs  []error
}

func (f *fakeDistributor) RetryPendingDistributions(context.Context) ([]int64, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return nil, nil
}

type denyLock struct{}

func (denyLock) Acquire(context.Context, time.Duration) (bool, error) { return false, nil }
func (denyLock) Release(context.Context) error                        { return nil }

func TestTick_PerformsUpkeepOnlyWhenNeeded(t *testing.T) {
	draws := &fakeDraws{needed: true}
	k := New(draws, nil, nil, nil, Config{})

	k.tick(context.Background())
	k.tick(context.Background())

	checks, performs, _ := draws.counts()
	assert.Equal(t, 2, checks)
	assert.Equal(t, 1, performs)
}

func TestTick_SkipsWithoutLease(t *testing.T) {
	draws := &fakeDraws{needed: true}
	k := New(draws, nil, nil, denyLock{}, Config{})

	k.tick(context.Background())

	checks, performs, _ := draws.counts()
	assert.Zero(t, checks)
	assert.Zero(t, performs)
}

func TestTick_SkipsWhenRedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	draws := &fakeDraws{needed: true}
	k := New(draws, nil, nil, NewRedisLock(client, "keeper:lease"), Config{})

	k.tick(context.Background())

	checks, _, _ := draws.counts()
	assert.Zero(t, checks)
}

func TestFulfill_DefersUnknownRequestUntilNextTick(t *testing.T) {
	draws := &fakeDraws{fulfillErrs: []error{services.ErrRequestNotFound}}
	k := New(draws, nil, nil, nil, Config{})

	k.fulfill(context.Background(), deferredFulfillment{Fulfillment: vrf.Fulfillment{RequestID: "r1"}})
	require.Len(t, k.deferred, 1)

	k.tick(context.Background())
	assert.Empty(t, k.deferred)
	assert.Equal(t, []string{"r1", "r1"}, draws.fulfilled)
}

func TestFulfill_DropsStaleAndAfterMaxAttempts(t *testing.T) {
	draws := &fakeDraws{fulfillErrs: []error{services.ErrRequestNotPending}}
	k := New(draws, nil, nil, nil, Config{MaxFulfillmentAttempts: 2})

	k.fulfill(context.Background(), deferredFulfillment{Fulfillment: vrf.Fulfillment{RequestID: "done"}})
	assert.Empty(t, k.deferred)

	draws.fulfillErrs = []error{services.ErrRequestNotFound, services.ErrRequestNotFound}
	k.fulfill(context.Background(), deferredFulfillment{Fulfillment: vrf.Fulfillment{RequestID: "lost"}})
	require.Len(t, k.deferred, 1)
	k.retryDeferred(context.Background())
	assert.Empty(t, k.deferred)
}

func TestRetryDistributions_RetriesWithBackoff(t *testing.T) {
	dist := &fakeDistributor{errs: []error{errors.New("store unavailable")}}
	k := New(&fakeDraws{}, dist, nil, nil, Config{DistributionRetries: 2})

	k.retryDistributions(context.Background())
	assert.Equal(t, 2, dist.calls)
}

func TestStartStop_ConsumesFulfillmentsWithoutLeaking(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	draws := &fakeDraws{}
	ch := make(chan vrf.Fulfillment, 1)
	k := New(draws, nil, ch, nil, Config{Schedule: "@every 1h"})

	require.NoError(t, k.Start(context.Background()))
	require.ErrorIs(t, k.Start(context.Background()), ErrKeeperStarted)

	ch <- vrf.Fulfillment{RequestID: "r1", RandomWords: []*big.Int{big.NewInt(1)}}
	require.Eventually(t, func() bool {
		_, _, fulfilled := draws.counts()
		return fulfilled == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, k.Stop())
	require.ErrorIs(t, k.Stop(), ErrKeeperStopped)
}

func TestStart_RejectsInvalidSchedule(t *testing.T) {
	k := New(&fakeDraws{}, nil, nil, nil, Config{Schedule: "every now and then"})
	assert.Error(t, k.Start(context.Background()))
}

func TestKeeper_DrivesRealDraw(t *testing.T) {
	now := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ledger := token.NewLedger("0x000000000000000000000000000000000000dEaD", 0)
	player := "0x1111111111111111111111111111111111111111"
	ledger.Mint(player, 1000)
	ledger.Approve(player, 1000)
	coord := vrf.NewLocalCoordinator(vrf.LocalConfig{Secret: "keeper"})
	rules := services.DefaultRules()
	rules.DefaultTicketPrice = 100

	svc := services.New(services.Deps{
		Store:       memory.NewStore(),
		Token:       ledger,
		Coordinator: coord,
		Rules:       rules,
		Clock:       clock,
	})
	ctx := context.Background()
	require.NoError(t, svc.Draws.Bootstrap(ctx))
	ticket, err := svc.Tickets.BuyTicket(ctx, player, []int{1, 2, 3, 4}, false)
	require.NoError(t, err)

	k := New(svc.Draws, svc.Prizes, coord.Fulfillments(), nil, Config{})
	now = now.Add(23 * time.Hour)
	k.tick(ctx)

	f := <-coord.Fulfillments()
	k.fulfill(ctx, deferredFulfillment{Fulfillment: f})

	day, err := svc.Tickets.GetDay(ctx, ticket.Day)
	require.NoError(t, err)
	assert.True(t, day.Drawn)
	assert.True(t, day.Distributed)
}
