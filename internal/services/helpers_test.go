package services

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories/memory"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/token"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/vrf"
)

const (
	treasury = "0x000000000000000000000000000000000000dEaD"
	alice    = "0x1111111111111111111111111111111111111111"
	bob      = "0x2222222222222222222222222222222222222222"
	price    = int64(100)
)

var (
	owner   = Caller{Address: "0x9999999999999999999999999999999999999999", Role: models.RoleOwner}
	winning = []*big.Int{big.NewInt(8), big.NewInt(5), big.NewInt(7), big.NewInt(14)}
	// 2024-03-10 03:00 UTC, one hour after that day's draw slot.
	startTime = time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// switchableToken fails every transfer while failing is set.
type switchableToken struct {
	token.Token
	mu      sync.Mutex
	failing bool
}

func (s *switchableToken) setFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = v
}

func (s *switchableToken) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("rpc unavailable")
	}
	return nil
}

func (s *switchableToken) TransferFrom(ctx context.Context, from string, amount int64) error {
	if err := s.err(); err != nil {
		return err
	}
	return s.Token.TransferFrom(ctx, from, amount)
}

func (s *switchableToken) Transfer(ctx context.Context, to string, amount int64) error {
	if err := s.err(); err != nil {
		return err
	}
	return s.Token.Transfer(ctx, to, amount)
}

// testingT is satisfied by *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

type harness struct {
	t      testingT
	ctx    context.Context
	clock  *fakeClock
	store  *repositories.Store
	ledger *token.Ledger
	token  *switchableToken
	vrf    *vrf.LocalCoordinator
	svc    *Services
}

func testRules() Rules {
	r := DefaultRules()
	r.DefaultTicketPrice = price
	return r
}

func newHarness(t testingT) *harness {
	return newHarnessWithVRF(t, vrf.LocalConfig{Secret: "test"})
}

func newHarnessWithVRF(t testingT, cfg vrf.LocalConfig) *harness {
	t.Helper()
	clock := &fakeClock{t: startTime}
	store := memory.NewStore()
	ledger := token.NewLedger(treasury, 0)
	tok := &switchableToken{Token: ledger}
	coord := vrf.NewLocalCoordinator(cfg)

	svc := New(Deps{
		Store:       store,
		Token:       tok,
		Coordinator: coord,
		Rules:       testRules(),
		Clock:       clock.Now,
	})
	h := &harness{t: t, ctx: context.Background(), clock: clock, store: store, ledger: ledger, token: tok, vrf: coord, svc: svc}
	require.NoError(t, svc.Draws.Bootstrap(h.ctx))
	for _, p := range []string{alice, bob} {
		ledger.Mint(p, 100*price)
		ledger.Approve(p, 100*price)
	}
	return h
}

func (h *harness) buy(player string, numbers ...int) *models.Ticket {
	h.t.Helper()
	ticket, err := h.svc.Tickets.BuyTicket(h.ctx, player, numbers, false)
	require.NoError(h.t, err)
	return ticket
}

// nextSlot moves the clock to the next draw slot.
func (h *harness) nextSlot() {
	h.clock.Advance(23 * time.Hour)
}

// draw performs upkeep and fulfills the request with the given words.
func (h *harness) draw(words []*big.Int) *models.GameDay {
	h.t.Helper()
	res, err := h.svc.Draws.PerformUpkeep(h.ctx, "")
	require.NoError(h.t, err)
	h.drainVRF()
	day, err := h.svc.Draws.OnRandomnessFulfilled(h.ctx, res.RequestID, words)
	require.NoError(h.t, err)
	return day
}

// drainVRF discards fulfillments queued by the local coordinator.
func (h *harness) drainVRF() {
	for {
		select {
		case <-h.vrf.Fulfillments():
		default:
			return
		}
	}
}

func (h *harness) balances() *models.Balances {
	h.t.Helper()
	b, err := h.svc.Pools.GetBalances(h.ctx)
	require.NoError(h.t, err)
	return b
}

// heldTotal is everything the system accounts for, including prizes already paid out.
func heldTotal(b *models.Balances) int64 {
	return b.MainPools.Total() + b.Reserves.Total() + b.UnclaimedPrizes + b.ClaimedPrizes
}
