package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	"github.com/ArowuTest/daily-lotto-settlement/internal/utils"
)

var _ AdminService = (*AdminServiceImpl)(nil)

// AdminServiceImpl manages the owner-controlled game settings. Every change bumps the settings
// version, appends one audit entry and emits SETTINGS_CHANGED.
type AdminServiceImpl struct {
	store  *repositories.Store
	events *EventService
	rules  Rules
	now    Clock
}

// NewAdminService creates a new AdminServiceImpl
func NewAdminService(store *repositories.Store, events *EventService, rules Rules, now Clock) *AdminServiceImpl {
	return &AdminServiceImpl{store: store, events: events, rules: rules, now: clockOrDefault(now)}
}

// GetSettings retrieves the current game settings
func (s *AdminServiceImpl) GetSettings(ctx context.Context) (*models.GameSettings, error) {
	return loadSettings(ctx, s.store, s.rules, s.now())
}

// ListSettingsAudit returns the newest audit entries first.
func (s *AdminServiceImpl) ListSettingsAudit(ctx context.Context, limit int) ([]*models.SettingsAudit, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.Settings.ListAudit(ctx, limit)
}

// settingChange mutates settings and returns the old and new value for the audit trail.
type settingChange func(ctx context.Context, settings *models.GameSettings, state *models.SchedulerState, now time.Time) (oldValue, newValue string, err error)

func (s *AdminServiceImpl) change(ctx context.Context, caller Caller, field string, apply settingChange) (*models.GameSettings, error) {
	if !caller.isOwner() {
		return nil, ErrNotOwner
	}
	var updated *models.GameSettings
	err := s.events.InTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		settings, err := loadSettings(ctx, s.store, s.rules, now)
		if err != nil {
			return err
		}
		state, err := loadScheduler(ctx, s.store, s.rules, settings, now)
		if err != nil {
			return err
		}
		oldValue, newValue, err := apply(ctx, settings, state, now)
		if err != nil {
			return err
		}
		settings.Version++
		settings.UpdatedBy = caller.Address
		settings.UpdatedAt = now
		if err := s.store.Settings.Save(ctx, settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		if err := s.store.Settings.AppendAudit(ctx, &models.SettingsAudit{
			Version:  settings.Version,
			Field:    field,
			OldValue: oldValue,
			NewValue: newValue,
			Actor:    caller.Address,
			At:       now,
		}); err != nil {
			return fmt.Errorf("failed to append audit: %w", err)
		}
		if err := s.events.Emit(ctx, models.EventSettingsChanged, utils.GameDayAt(now, settings.DayChangeHourUTC), 0, map[string]interface{}{
			"field":    field,
			"oldValue": oldValue,
			"newValue": newValue,
			"version":  settings.Version,
			"actor":    caller.Address,
		}); err != nil {
			return err
		}
		updated = settings
		return nil
	})
	if err != nil {
		slog.Warn("Settings change rejected", "error", err, "field", field, "actor", caller.Address)
		return nil, err
	}
	slog.Info("Settings changed", "field", field, "version", updated.Version, "actor", caller.Address)
	return updated, nil
}

func (s *AdminServiceImpl) SetTicketPrice(ctx context.Context, caller Caller, price int64) (*models.GameSettings, error) {
	return s.change(ctx, caller, "ticketPrice", func(_ context.Context, st *models.GameSettings, _ *models.SchedulerState, _ time.Time) (string, string, error) {
		if price <= 0 {
			return "", "", wrap(ErrInvalidSetting, "ticket price must be positive")
		}
		old := st.TicketPrice
		st.TicketPrice = price
		return strconv.FormatInt(old, 10), strconv.FormatInt(price, 10), nil
	})
}

// SetDrawHour moves the draw slot grid. Rejected while a draw is in flight.
func (s *AdminServiceImpl) SetDrawHour(ctx context.Context, caller Caller, hour int) (*models.GameSettings, error) {
	return s.change(ctx, caller, "drawHourUtc", func(_ context.Context, st *models.GameSettings, sched *models.SchedulerState, _ time.Time) (string, string, error) {
		if !utils.ValidHour(hour) {
			return "", "", wrap(ErrInvalidSetting, "hour %d outside 0-23", hour)
		}
		if sched.HasPendingRequest() {
			return "", "", ErrRequestPending
		}
		old := st.DrawHourUTC
		st.DrawHourUTC = hour
		return strconv.Itoa(old), strconv.Itoa(hour), nil
	})
}

// SetDayChangeHour moves the game-day boundary. Rejected while a draw is in flight.
func (s *AdminServiceImpl) SetDayChangeHour(ctx context.Context, caller Caller, hour int) (*models.GameSettings, error) {
	return s.change(ctx, caller, "dayChangeHourUtc", func(_ context.Context, st *models.GameSettings, sched *models.SchedulerState, _ time.Time) (string, string, error) {
		if !utils.ValidHour(hour) {
			return "", "", wrap(ErrInvalidSetting, "hour %d outside 0-23", hour)
		}
		if sched.HasPendingRequest() {
			return "", "", ErrRequestPending
		}
		old := st.DayChangeHourUTC
		st.DayChangeHourUTC = hour
		return strconv.Itoa(old), strconv.Itoa(hour), nil
	})
}

func (s *AdminServiceImpl) SetAutomationEnabled(ctx context.Context, caller Caller, enabled bool) (*models.GameSettings, error) {
	return s.change(ctx, caller, "automationEnabled", func(_ context.Context, st *models.GameSettings, _ *models.SchedulerState, _ time.Time) (string, string, error) {
		old := st.AutomationEnabled
		st.AutomationEnabled = enabled
		return strconv.FormatBool(old), strconv.FormatBool(enabled), nil
	})
}

// SetEmergencyPause blocks or unblocks upkeep. Purchases and claims are unaffected.
func (s *AdminServiceImpl) SetEmergencyPause(ctx context.Context, caller Caller, paused bool) (*models.GameSettings, error) {
	return s.change(ctx, caller, "emergencyPaused", func(_ context.Context, st *models.GameSettings, _ *models.SchedulerState, _ time.Time) (string, string, error) {
		old := st.EmergencyPaused
		st.EmergencyPaused = paused
		return strconv.FormatBool(old), strconv.FormatBool(paused), nil
	})
}

// SetLastDrawTime overrides the scheduler's last draw time for recovery. It may not move the
// schedule more than one interval into the future, and it may not make an already drawn slot
// due again.
func (s *AdminServiceImpl) SetLastDrawTime(ctx context.Context, caller Caller, t time.Time) (*models.SchedulerView, error) {
	t = t.UTC()
	var scheduler *models.SchedulerState
	settings, err := s.change(ctx, caller, "lastDrawTime", func(ctx context.Context, st *models.GameSettings, sched *models.SchedulerState, now time.Time) (string, string, error) {
		if sched.HasPendingRequest() {
			return "", "", ErrRequestPending
		}
		if t.After(now.Add(s.rules.DrawInterval)) {
			return "", "", wrap(ErrInvalidSetting, "last draw time more than one interval ahead")
		}
		currentSlot := utils.AlignedSlot(now, st.DrawHourUTC, s.rules.DrawInterval)
		if !now.Before(t.Add(s.rules.DrawInterval)) && !sched.LastDrawTime.Before(currentSlot) {
			return "", "", ErrWouldDoubleTrigger
		}
		old := sched.LastDrawTime
		sched.LastDrawTime = t
		sched.UpdatedAt = now
		if err := s.store.Scheduler.Save(ctx, sched); err != nil {
			return "", "", fmt.Errorf("failed to save scheduler state: %w", err)
		}
		scheduler = sched
		return old.Format(time.RFC3339), t.Format(time.RFC3339), nil
	})
	if err != nil {
		return nil, err
	}
	return schedulerView(scheduler, settings, s.rules, s.now()), nil
}
