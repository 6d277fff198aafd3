package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/utils"
)

func TestBuyTicket_CreditsDayAndAssignsSequentialIDs(t *testing.T) {
	h := newHarness(t)
	day := utils.GameDayAt(startTime, 0)

	first := h.buy(alice, 1, 2, 3, 4)
	second := h.buy(bob, 24, 24, 0, 0)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, day, first.Day)
	assert.Equal(t, price, first.PricePaid)

	gd, err := h.svc.Tickets.GetDay(h.ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, gd.TicketIDs)
	assert.Equal(t, 2*price, gd.TotalCollected)
	assert.Equal(t, gd.TotalCollected, gd.PoolPortion+gd.ReservePortion)
	assert.Equal(t, int64(160), gd.PoolPortion)
	assert.False(t, gd.PoolsCredited)

	bal, _ := h.ledger.BalanceOf(h.ctx, treasury)
	assert.Equal(t, 2*price, bal)

	ids, err := h.svc.Tickets.GetDayTickets(h.ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestBuyTicket_RejectsInvalidInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Tickets.BuyTicket(h.ctx, alice, []int{1, 2, 25, 4}, false)
	require.ErrorIs(t, err, ErrInvalidNumbers)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = h.svc.Tickets.BuyTicket(h.ctx, alice, []int{1, 2, 3}, false)
	require.ErrorIs(t, err, ErrInvalidNumbers)

	_, err = h.svc.Tickets.BuyTicket(h.ctx, "alice", []int{1, 2, 3, 4}, false)
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestBuyTicket_FailedPaymentChangesNothing(t *testing.T) {
	h := newHarness(t)
	h.token.setFailing(true)

	_, err := h.svc.Tickets.BuyTicket(h.ctx, alice, []int{1, 2, 3, 4}, false)
	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.Equal(t, KindDependency, KindOf(err))

	day := utils.GameDayAt(startTime, 0)
	_, err = h.svc.Tickets.GetDay(h.ctx, day)
	assert.ErrorIs(t, err, ErrDayNotFound)

	h.token.setFailing(false)
	ticket := h.buy(alice, 1, 2, 3, 4)
	assert.Equal(t, int64(1), ticket.ID, "failed purchase must not consume an id")
}

func TestBuyTicket_InsufficientAllowance(t *testing.T) {
	h := newHarness(t)
	h.ledger.Approve(alice, price-1)

	_, err := h.svc.Tickets.BuyTicket(h.ctx, alice, []int{1, 2, 3, 4}, false)
	require.ErrorIs(t, err, ErrPaymentFailed)
}

func TestBuyTicket_SkipsDayWhoseDrawStarted(t *testing.T) {
	h := newHarness(t)
	h.nextSlot()
	current := utils.GameDayAt(h.clock.Now(), testRules().DefaultDayChangeHourUTC)

	res, err := h.svc.Draws.PerformUpkeep(h.ctx, "")
	require.NoError(t, err)
	require.Equal(t, current, res.Day)

	late := h.buy(bob, 5, 6, 7, 8)
	assert.Equal(t, current+1, late.Day)

	gd, err := h.svc.Tickets.GetDay(h.ctx, current)
	require.NoError(t, err)
	assert.Empty(t, gd.TicketIDs)
}

func TestBuyTicket_WithCreditRequiresCredit(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Tickets.BuyTicket(h.ctx, alice, []int{1, 2, 3, 4}, true)
	require.ErrorIs(t, err, ErrNoFreeTickets)
}

func TestGetTicket_ShowsMatchOnceDrawn(t *testing.T) {
	h := newHarness(t)
	ticket := h.buy(alice, 14, 7, 5, 8)

	view, err := h.svc.Tickets.GetTicket(h.ctx, ticket.ID)
	require.NoError(t, err)
	assert.False(t, view.DayDrawn)
	assert.Nil(t, view.Match)

	h.nextSlot()
	h.draw(winning)

	view, err = h.svc.Tickets.GetTicket(h.ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Match)
	assert.Equal(t, models.TierSecondPrize, view.Match.Tier)
	assert.Equal(t, 0, view.Match.ExactMatches)
	assert.Equal(t, 4, view.Match.AnyOrderMatches)

	_, err = h.svc.Tickets.GetTicket(h.ctx, 999)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListOwnerTickets(t *testing.T) {
	h := newHarness(t)
	h.buy(alice, 1, 2, 3, 4)
	h.buy(bob, 1, 2, 3, 4)
	h.buy(alice, 4, 3, 2, 1)

	tickets, err := h.svc.Tickets.ListOwnerTickets(h.ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, int64(1), tickets[0].ID)
	assert.Equal(t, int64(3), tickets[1].ID)
}
