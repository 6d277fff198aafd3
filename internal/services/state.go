package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	"github.com/ArowuTest/daily-lotto-settlement/internal/utils"
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// Caller identifies who invokes an operation: Address is the caller's account, Role its token role.
type Caller struct {
	Address string
	Role    string
}

func (c Caller) isOwner() bool {
	return c.Role == models.RoleOwner
}

func defaultSettings(rules Rules, now time.Time) *models.GameSettings {
	return &models.GameSettings{
		Version:           0,
		TicketPrice:       rules.DefaultTicketPrice,
		DrawHourUTC:       rules.DefaultDrawHourUTC,
		DayChangeHourUTC:  rules.DefaultDayChangeHourUTC,
		AutomationEnabled: true,
		UpdatedBy:         "system",
		UpdatedAt:         now,
	}
}

// loadSettings returns the stored settings, or the defaults when none were saved yet.
func loadSettings(ctx context.Context, store *repositories.Store, rules Rules, now time.Time) (*models.GameSettings, error) {
	settings, err := store.Settings.Get(ctx)
	if errors.Is(err, repositories.ErrNotFound) {
		return defaultSettings(rules, now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// loadScheduler returns the stored scheduler state. Before Bootstrap has run, the state
// starts at the slot containing now.
func loadScheduler(ctx context.Context, store *repositories.Store, rules Rules, settings *models.GameSettings, now time.Time) (*models.SchedulerState, error) {
	st, err := store.Scheduler.Get(ctx)
	if errors.Is(err, repositories.ErrNotFound) {
		return &models.SchedulerState{
			LastDrawTime: utils.AlignedSlot(now, settings.DrawHourUTC, rules.DrawInterval),
			Status:       models.SchedulerIdle,
			UpdatedAt:    now,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler state: %w", err)
	}
	return st, nil
}

// findOrNewDay returns the stored day or an unsaved empty one.
func findOrNewDay(ctx context.Context, store *repositories.Store, day int64, now time.Time) (*models.GameDay, error) {
	d, err := store.Days.FindByDay(ctx, day)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.NewGameDay(day, now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load day %d: %w", day, err)
	}
	return d, nil
}
