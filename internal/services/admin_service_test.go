package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/utils"
)

func TestAdmin_RequiresOwner(t *testing.T) {
	h := newHarness(t)
	player := Caller{Address: alice, Role: models.RolePlayer}

	_, err := h.svc.Admin.SetTicketPrice(h.ctx, player, 500)
	require.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, KindAuthorization, KindOf(err))

	_, err = h.svc.Admin.SetEmergencyPause(h.ctx, player, true)
	require.ErrorIs(t, err, ErrNotOwner)

	settings, err := h.svc.Admin.GetSettings(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), settings.Version)
	assert.Equal(t, price, settings.TicketPrice)
}

func TestAdmin_SetTicketPriceIsVersionedAndAudited(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Admin.SetTicketPrice(h.ctx, owner, 0)
	require.ErrorIs(t, err, ErrInvalidSetting)

	settings, err := h.svc.Admin.SetTicketPrice(h.ctx, owner, 2*price)
	require.NoError(t, err)
	assert.Equal(t, int64(2), settings.Version)
	assert.Equal(t, owner.Address, settings.UpdatedBy)

	audit, err := h.svc.Admin.ListSettingsAudit(h.ctx, 0)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, models.SettingsAudit{
		Version:  2,
		Field:    "ticketPrice",
		OldValue: "100",
		NewValue: "200",
		Actor:    owner.Address,
		At:       startTime,
	}, *audit[0])

	events, err := h.svc.Events.ListDayEvents(h.ctx, utils.GameDayAt(startTime, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventSettingsChanged, events[0].Type)

	ticket := h.buy(alice, 1, 2, 3, 4)
	assert.Equal(t, 2*price, ticket.PricePaid)
}

func TestAdmin_HourChangesBlockedWhileDrawPending(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Admin.SetDrawHour(h.ctx, owner, 24)
	require.ErrorIs(t, err, ErrInvalidSetting)
	_, err = h.svc.Admin.SetDayChangeHour(h.ctx, owner, -1)
	require.ErrorIs(t, err, ErrInvalidSetting)

	h.nextSlot()
	_, err = h.svc.Draws.PerformUpkeep(h.ctx, "")
	require.NoError(t, err)

	_, err = h.svc.Admin.SetDrawHour(h.ctx, owner, 5)
	require.ErrorIs(t, err, ErrRequestPending)
	_, err = h.svc.Admin.SetDayChangeHour(h.ctx, owner, 5)
	require.ErrorIs(t, err, ErrRequestPending)
	_, err = h.svc.Admin.SetLastDrawTime(h.ctx, owner, startTime)
	require.ErrorIs(t, err, ErrRequestPending)

	// Pausing stays possible mid-draw.
	_, err = h.svc.Admin.SetEmergencyPause(h.ctx, owner, true)
	require.NoError(t, err)
}

func TestAdmin_SetDrawHourMovesSlotGrid(t *testing.T) {
	h := newHarness(t)
	settings, err := h.svc.Admin.SetDrawHour(h.ctx, owner, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, settings.DrawHourUTC)

	h.clock.Set(time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC))
	res, err := h.svc.Draws.PerformUpkeep(h.ctx, "")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC), res.LastDrawTime, 0)
}

func TestAdmin_SetLastDrawTime(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Admin.SetLastDrawTime(h.ctx, owner, startTime.Add(25*time.Hour))
	require.ErrorIs(t, err, ErrInvalidSetting)

	delayed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	view, err := h.svc.Admin.SetLastDrawTime(h.ctx, owner, delayed)
	require.NoError(t, err)
	assert.WithinDuration(t, delayed, view.LastDrawTime, 0)
	assert.WithinDuration(t, delayed.Add(24*time.Hour), view.NextDrawTime, 0)

	h.nextSlot()
	check, err := h.svc.Draws.CheckUpkeep(h.ctx)
	require.NoError(t, err)
	assert.False(t, check.Needed)

	settings, err := h.svc.Admin.GetSettings(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), settings.Version)
}

func TestAdmin_SetLastDrawTimeRefusesDoubleTrigger(t *testing.T) {
	h := newHarness(t)
	h.buy(alice, 1, 2, 3, 4)
	h.nextSlot()
	h.draw(winning)

	_, err := h.svc.Admin.SetLastDrawTime(h.ctx, owner, startTime.Add(-time.Hour))
	require.ErrorIs(t, err, ErrWouldDoubleTrigger)
	assert.Equal(t, KindTiming, KindOf(err))

	view, err := h.svc.Draws.GetSchedulerStatus(h.ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, h.clock.Now(), view.LastDrawTime, 0)
}
