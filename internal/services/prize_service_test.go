package services

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
)

type drawnFixture struct {
	*harness
	first, second, third, free, loser *models.Ticket
}

func newDrawnFixture(t *testing.T) *drawnFixture {
	h := newHarness(t)
	f := &drawnFixture{harness: h}
	f.first = h.buy(alice, 8, 5, 7, 14)
	f.second = h.buy(alice, 14, 7, 5, 8)
	f.third = h.buy(bob, 8, 5, 7, 20)
	f.free = h.buy(bob, 20, 5, 7, 8)
	h.nextSlot()
	h.draw(winning)
	f.loser = h.buy(alice, 1, 2, 3, 4)
	return f
}

func TestClaimPrize_PaysMonetaryPrize(t *testing.T) {
	f := newDrawnFixture(t)
	before, err := f.ledger.BalanceOf(f.ctx, alice)
	require.NoError(t, err)

	ticket, err := f.svc.Prizes.ClaimPrize(f.ctx, alice, f.first.ID)
	require.NoError(t, err)
	assert.True(t, ticket.Claimed)
	assert.Equal(t, int64(232), ticket.PrizeAmount)

	after, err := f.ledger.BalanceOf(f.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, before+232, after)

	b := f.balances()
	assert.Equal(t, int64(136), b.UnclaimedPrizes)
	assert.Equal(t, int64(232), b.ClaimedPrizes)

	_, err = f.svc.Prizes.ClaimPrize(f.ctx, alice, f.first.ID)
	require.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, KindTiming, KindOf(err))
}

func TestClaimPrize_Rejections(t *testing.T) {
	f := newDrawnFixture(t)

	_, err := f.svc.Prizes.ClaimPrize(f.ctx, bob, f.first.ID)
	require.ErrorIs(t, err, ErrNotTicketHolder)
	assert.Equal(t, KindAuthorization, KindOf(err))

	_, err = f.svc.Prizes.ClaimPrize(f.ctx, alice, 999)
	require.ErrorIs(t, err, ErrTicketNotFound)

	// The loser's day has not been drawn yet.
	_, err = f.svc.Prizes.ClaimPrize(f.ctx, alice, f.loser.ID)
	require.ErrorIs(t, err, ErrDayNotDistributed)

	f.clock.Advance(24 * time.Hour)
	f.draw(winning)
	_, err = f.svc.Prizes.ClaimPrize(f.ctx, alice, f.loser.ID)
	require.ErrorIs(t, err, ErrNotWinner)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestClaimPrize_FailedTransferKeepsPrizeClaimable(t *testing.T) {
	f := newDrawnFixture(t)
	before := f.balances()

	f.token.setFailing(true)
	_, err := f.svc.Prizes.ClaimPrize(f.ctx, alice, f.second.ID)
	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.True(t, Retryable(err))
	assert.Equal(t, before, f.balances())

	view, err := f.svc.Tickets.GetTicket(f.ctx, f.second.ID)
	require.NoError(t, err)
	assert.False(t, view.Claimed)

	f.token.setFailing(false)
	ticket, err := f.svc.Prizes.ClaimPrize(f.ctx, alice, f.second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(88), ticket.PrizeAmount)
}

func TestClaimPrize_FreeTicketGrantsCredit(t *testing.T) {
	f := newDrawnFixture(t)

	_, err := f.svc.Prizes.ClaimPrize(f.ctx, bob, f.free.ID)
	require.NoError(t, err)

	credit, err := f.svc.Tickets.GetCredits(f.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), credit.FreeTickets)

	held := heldTotal(f.balances())
	ticket, err := f.svc.Tickets.BuyTicket(f.ctx, bob, []int{3, 3, 3, 3}, true)
	require.NoError(t, err)
	assert.Zero(t, ticket.PricePaid)
	assert.True(t, ticket.PaidWithCredit)
	assert.Equal(t, held, heldTotal(f.balances()))

	credit, err = f.svc.Tickets.GetCredits(f.ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, credit.FreeTickets)

	_, err = f.svc.Tickets.BuyTicket(f.ctx, bob, []int{3, 3, 3, 3}, true)
	require.ErrorIs(t, err, ErrNoFreeTickets)
}

func TestDistributeDay_Guards(t *testing.T) {
	f := newDrawnFixture(t)

	_, err := f.svc.Prizes.DistributeDay(f.ctx, f.first.Day)
	require.ErrorIs(t, err, ErrAlreadyDistributed)

	_, err = f.svc.Prizes.DistributeDay(f.ctx, f.loser.Day)
	require.ErrorIs(t, err, ErrDayNotDrawn)

	_, err = f.svc.Prizes.DistributeDay(f.ctx, 1)
	require.ErrorIs(t, err, ErrDayNotFound)

	done, err := f.svc.Prizes.RetryPendingDistributions(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestDistributeDay_SplitsEvenlyAndKeepsDust(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		h.buy(alice, 8, 5, 7, 14)
	}
	h.buy(bob, 1, 2, 3, 4)
	h.nextSlot()
	day := h.draw(winning)

	// First pool is 232 after refill; 3 winners get 77 and 1 stays behind.
	assert.Equal(t, 3, day.TierWinners[models.TierFirstPrize])
	assert.Equal(t, int64(77), day.TierShares[models.TierFirstPrize])
	b := h.balances()
	assert.Equal(t, int64(231), b.UnclaimedPrizes)
	assert.Equal(t, int64(1), b.MainPools.First)
	assert.Equal(t, int64(400), heldTotal(b))
}

// Across random days of sales, draws and claims every collected unit stays accounted for, and
// the treasury holds exactly what was collected minus what was paid out.
func TestSettlement_ConservesFunds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHarness(rt)
		number := rapid.IntRange(0, 24)
		players := []string{alice, bob}

		var collected, paid int64
		var tickets []*models.Ticket
		days := rapid.IntRange(1, 3).Draw(rt, "days")
		for d := 0; d < days; d++ {
			n := rapid.IntRange(0, 8).Draw(rt, "tickets")
			for i := 0; i < n; i++ {
				nums := rapid.SliceOfN(number, 4, 4).Draw(rt, "numbers")
				player := rapid.SampledFrom(players).Draw(rt, "player")
				tickets = append(tickets, h.buy(player, nums...))
				collected += price
			}
			h.clock.Set(time.Date(2024, 3, 11+d, 2, 0, 0, 0, time.UTC))
			words := make([]*big.Int, 4)
			for i := range words {
				words[i] = big.NewInt(int64(number.Draw(rt, "word")))
			}
			h.draw(words)

			for _, tk := range tickets {
				view, err := h.svc.Tickets.GetTicket(h.ctx, tk.ID)
				require.NoError(rt, err)
				if !view.DayDrawn || view.Claimed || !view.Tier.IsWinning() {
					continue
				}
				claimed, err := h.svc.Prizes.ClaimPrize(h.ctx, view.Owner, tk.ID)
				require.NoError(rt, err)
				paid += claimed.PrizeAmount
			}

			b := h.balances()
			require.Equal(rt, collected, heldTotal(b))
			require.GreaterOrEqual(rt, b.UnclaimedPrizes, int64(0))
			require.Equal(rt, paid, b.ClaimedPrizes)
			held, err := h.ledger.BalanceOf(h.ctx, treasury)
			require.NoError(rt, err)
			require.Equal(rt, collected-paid, held)
		}
	})
}
