package services

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/daily-lotto-settlement/internal/metrics"
	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	"github.com/ArowuTest/daily-lotto-settlement/internal/utils"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/vrf"
)

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

// DrawServiceImpl is the draw scheduler: it decides when a day is drawn, requests randomness
// for it and turns the fulfillment into winning numbers.
// State machine: IDLE -> RANDOMNESS_REQUESTED -> IDLE. PAUSED is reported while the emergency
// flag is set and blocks upkeep only.
type DrawServiceImpl struct {
	store       *repositories.Store
	pools       *PoolServiceImpl
	prizes      *PrizeServiceImpl
	coordinator vrf.Coordinator
	events      *EventService
	rules       Rules
	now         Clock
}

// NewDrawService creates a new DrawServiceImpl
func NewDrawService(
	store *repositories.Store,
	pools *PoolServiceImpl,
	prizes *PrizeServiceImpl,
	coordinator vrf.Coordinator,
	events *EventService,
	rules Rules,
	now Clock,
) *DrawServiceImpl {
	return &DrawServiceImpl{
		store:       store,
		pools:       pools,
		prizes:      prizes,
		coordinator: coordinator,
		events:      events,
		rules:       rules,
		now:         clockOrDefault(now),
	}
}

// Bootstrap persists the default settings and an idle scheduler anchored at the current slot.
func (s *DrawServiceImpl) Bootstrap(ctx context.Context) error {
	return s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		settings, err := s.store.Settings.Get(ctx)
		if errors.Is(err, repositories.ErrNotFound) {
			settings = defaultSettings(s.rules, now)
			settings.Version = 1
			if err := s.store.Settings.Save(ctx, settings); err != nil {
				return fmt.Errorf("failed to save default settings: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		_, err = s.store.Scheduler.Get(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to load scheduler state: %w", err)
		}
		state, err := loadScheduler(ctx, s.store, s.rules, settings, now)
		if err != nil {
			return err
		}
		if err := s.store.Scheduler.Save(ctx, state); err != nil {
			return fmt.Errorf("failed to save scheduler state: %w", err)
		}
		slog.Info("Scheduler initialized", "lastDrawTime", state.LastDrawTime)
		return nil
	})
}

// CheckUpkeep evaluates the upkeep predicate without side effects.
func (s *DrawServiceImpl) CheckUpkeep(ctx context.Context) (*models.UpkeepCheck, error) {
	now := s.now()
	settings, err := loadSettings(ctx, s.store, s.rules, now)
	if err != nil {
		return nil, err
	}
	state, err := loadScheduler(ctx, s.store, s.rules, settings, now)
	if err != nil {
		return nil, err
	}
	check := &models.UpkeepCheck{CheckedAt: now}
	check.Needed, check.Reason = s.upkeepNeeded(settings, state, now)
	if check.Needed {
		target, err := s.targetDay(ctx, settings, now)
		if err != nil {
			return nil, err
		}
		check.TargetDay = target
		check.PerformData = encodePerformData(target)
	}
	return check, nil
}

func (s *DrawServiceImpl) upkeepNeeded(settings *models.GameSettings, state *models.SchedulerState, now time.Time) (bool, string) {
	switch {
	case !settings.AutomationEnabled:
		return false, "automation disabled"
	case settings.EmergencyPaused:
		return false, "emergency paused"
	case state.HasPendingRequest():
		return false, "randomness request pending"
	case now.Before(utils.NextDrawTime(state.LastDrawTime, s.rules.DrawInterval)):
		return false, "draw interval not elapsed"
	}
	return true, "draw due"
}

// targetDay is the current game-day. With the boundary after the draw hour, at the slot
// the current day is the one whose sales just closed. Older undrawn days with tickets, left by
// a missed slot or a moved boundary, are drawn first; an already drawn current day yields the
// first undrawn day after it.
func (s *DrawServiceImpl) targetDay(ctx context.Context, settings *models.GameSettings, now time.Time) (int64, error) {
	current := utils.GameDayAt(now, settings.DayChangeHourUTC)
	day, err := s.store.Days.FindOldestUndrawnWithTickets(ctx, current)
	if err == nil {
		return day.Day, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return 0, fmt.Errorf("failed to find undrawn day: %w", err)
	}
	for d := current; ; d++ {
		day, err := findOrNewDay(ctx, s.store, d, now)
		if err != nil {
			return 0, err
		}
		if !day.Drawn {
			return d, nil
		}
	}
}

// PerformUpkeep starts a draw. It re-checks the predicate and, in one transaction, advances
// LastDrawTime to the current slot, materializes the target day's pools, refills from reserves
// and records the randomness request. A rejected request leaves state untouched.
func (s *DrawServiceImpl) PerformUpkeep(ctx context.Context, performData string) (*models.UpkeepResult, error) {
	var result *models.UpkeepResult
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
		if needed, reason := s.upkeepNeeded(settings, state, now); !needed {
			return wrap(ErrUpkeepNotNeeded, "%s", reason)
		}

		target, err := s.targetDay(ctx, settings, now)
		if err != nil {
			return err
		}
		if hinted, ok := decodePerformData(performData); ok && hinted != target {
			slog.Debug("Perform data is stale", "hinted", hinted, "target", target)
		}

		slot := utils.AlignedSlot(now, settings.DrawHourUTC, s.rules.DrawInterval)
		day, err := s.pools.MaterializeDay(ctx, target)
		if err != nil {
			return err
		}
		refilled, err := s.pools.RefillFromReserves(ctx)
		if err != nil {
			return err
		}

		// A callback retried by the driver sees the same attempt and so the same seed, which the
		// coordinator answers with the original request.
		day.DrawAttempts++
		seed := drawSeed(target, slot, day.DrawAttempts)
		requestID, err := s.coordinator.RequestRandomWords(ctx, vrf.Request{Seed: seed, NumWords: s.rules.RandomWords})
		if err != nil {
			metrics.RandomnessRequestFailed()
			return fmt.Errorf("%w: %v", ErrRandomnessRequestFailed, err)
		}

		req := &models.RandomnessRequest{
			RequestID:   requestID,
			Day:         target,
			Seed:        hex.EncodeToString(seed),
			NumWords:    s.rules.RandomWords,
			Status:      models.RandomnessPending,
			RequestedAt: now,
		}
		if err := s.store.Randomness.Create(ctx, req); err != nil {
			return fmt.Errorf("failed to save randomness request: %w", err)
		}

		day.DrawRequested = true
		day.RequestID = requestID
		day.UpdatedAt = now
		if err := s.store.Days.Save(ctx, day); err != nil {
			return fmt.Errorf("failed to save day %d: %w", target, err)
		}

		state.LastDrawTime = slot
		state.Status = models.SchedulerRandomnessRequested
		state.PendingRequestID = requestID
		state.PendingDay = target
		state.LastUpkeepAt = now
		state.UpdatedAt = now
		if err := s.store.Scheduler.Save(ctx, state); err != nil {
			return fmt.Errorf("failed to save scheduler state: %w", err)
		}

		if err := s.events.Emit(ctx, models.EventUpkeepPerformed, target, 0, map[string]interface{}{
			"lastDrawTime": slot,
			"refilled":     refilled.Total(),
		}); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, models.EventRandomnessRequested, target, 0, map[string]interface{}{
			"requestId": requestID,
		}); err != nil {
			return err
		}

		result = &models.UpkeepResult{Day: target, RequestID: requestID, LastDrawTime: slot, Refilled: refilled}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUpkeepNotNeeded) {
			metrics.UpkeepOutcome("not_needed")
		} else {
			metrics.UpkeepOutcome("failed")
			slog.Error("Upkeep failed", "error", err)
		}
		return nil, err
	}
	metrics.UpkeepOutcome("performed")
	s.pools.observe(ctx)
	slog.Info("Upkeep performed", "day", result.Day, "requestId", result.RequestID, "lastDrawTime", result.LastDrawTime)
	return result, nil
}

// OnRandomnessFulfilled applies the oracle's answer. Each request is honoured at most once; a
// repeated, abandoned or late fulfillment changes nothing. Distribution then runs in its own
// transaction; if it fails the day stays drawn and is retried later.
func (s *DrawServiceImpl) OnRandomnessFulfilled(ctx context.Context, requestID string, words []*big.Int) (*models.GameDay, error) {
	var drawn *models.GameDay
	err := s.events.InTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		req, err := s.store.Randomness.FindByID(ctx, requestID)
		if errors.Is(err, repositories.ErrNotFound) {
			return wrap(ErrRequestNotFound, "%s", requestID)
		}
		if err != nil {
			return fmt.Errorf("failed to load randomness request: %w", err)
		}
		if req.Status != models.RandomnessPending {
			return wrap(ErrRequestNotPending, "%s is %s", requestID, req.Status)
		}
		day, err := s.store.Days.FindByDay(ctx, req.Day)
		if err != nil {
			return fmt.Errorf("failed to load day %d: %w", req.Day, err)
		}
		if day.Drawn {
			return wrap(ErrDayAlreadyDrawn, "day %d", day.Day)
		}
		numbers, err := utils.WinningNumbersFromWords(words, s.rules.Numbers)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRandomness, err)
		}

		req.Status = models.RandomnessFulfilled
		req.FulfilledAt = now
		req.RandomWords = make([]string, len(words))
		for i, w := range words {
			req.RandomWords[i] = w.Text(16)
		}
		if err := s.store.Randomness.Update(ctx, req); err != nil {
			return fmt.Errorf("failed to update randomness request: %w", err)
		}

		day.Drawn = true
		day.DrawRequested = false
		day.WinningNumbers = numbers
		day.DrawnAt = now
		day.UpdatedAt = now
		if err := s.store.Days.Save(ctx, day); err != nil {
			return fmt.Errorf("failed to save day %d: %w", day.Day, err)
		}

		settings, err := loadSettings(ctx, s.store, s.rules, now)
		if err != nil {
			return err
		}
		state, err := loadScheduler(ctx, s.store, s.rules, settings, now)
		if err != nil {
			return err
		}
		if state.PendingRequestID == requestID {
			state.PendingRequestID = ""
			state.PendingDay = 0
			state.Status = models.SchedulerIdle
			state.UpdatedAt = now
			if err := s.store.Scheduler.Save(ctx, state); err != nil {
				return fmt.Errorf("failed to save scheduler state: %w", err)
			}
		}

		if err := s.events.Emit(ctx, models.EventDrawFulfilled, day.Day, 0, map[string]interface{}{
			"requestId":      requestID,
			"winningNumbers": numbers[:],
		}); err != nil {
			return err
		}
		drawn = day
		return nil
	})
	if err != nil {
		slog.Warn("Randomness fulfillment rejected", "error", err, "requestId", requestID)
		return nil, err
	}
	metrics.DrawFulfilled()
	slog.Info("Day drawn", "day", drawn.Day, "winningNumbers", drawn.WinningNumbers, "requestId", requestID)

	distributed, err := s.prizes.DistributeDay(ctx, drawn.Day)
	if err != nil {
		slog.Error("Distribution after draw failed, will retry", "error", err, "day", drawn.Day)
		return drawn, nil
	}
	return distributed, nil
}

// RecoverScheduler abandons an outstanding randomness request so the same day can be drawn
// again. The day's pools stay materialized.
func (s *DrawServiceImpl) RecoverScheduler(ctx context.Context, caller Caller) (*models.SchedulerView, error) {
	if !caller.isOwner() {
		return nil, ErrNotOwner
	}
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
		if !state.HasPendingRequest() {
			return ErrNothingToRecover
		}
		requestID, dayNum := state.PendingRequestID, state.PendingDay

		req, err := s.store.Randomness.FindByID(ctx, requestID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to load randomness request: %w", err)
		}
		if req != nil {
			req.Status = models.RandomnessAbandoned
			if err := s.store.Randomness.Update(ctx, req); err != nil {
				return fmt.Errorf("failed to update randomness request: %w", err)
			}
		}

		day, err := s.store.Days.FindByDay(ctx, dayNum)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to load day %d: %w", dayNum, err)
		}
		if day != nil && !day.Drawn {
			day.DrawRequested = false
			day.RequestID = ""
			day.UpdatedAt = now
			if err := s.store.Days.Save(ctx, day); err != nil {
				return fmt.Errorf("failed to save day %d: %w", dayNum, err)
			}
		}

		previous := state.LastDrawTime
		state.PendingRequestID = ""
		state.PendingDay = 0
		state.Status = models.SchedulerIdle
		state.LastDrawTime = previous.Add(-s.rules.DrawInterval)
		state.UpdatedAt = now
		if err := s.store.Scheduler.Save(ctx, state); err != nil {
			return fmt.Errorf("failed to save scheduler state: %w", err)
		}

		if err := s.store.Settings.AppendAudit(ctx, &models.SettingsAudit{
			Version:  settings.Version,
			Field:    "scheduler",
			OldValue: fmt.Sprintf("pending %s (day %d), lastDrawTime %s", requestID, dayNum, previous.Format(time.RFC3339)),
			NewValue: fmt.Sprintf("idle, lastDrawTime %s", state.LastDrawTime.Format(time.RFC3339)),
			Actor:    caller.Address,
			At:       now,
		}); err != nil {
			return fmt.Errorf("failed to append audit: %w", err)
		}
		return s.events.Emit(ctx, models.EventSchedulerRecovered, dayNum, 0, map[string]interface{}{
			"requestId": requestID,
			"actor":     caller.Address,
		})
	})
	if err != nil {
		return nil, err
	}
	slog.Warn("Scheduler recovered", "actor", caller.Address)
	return s.GetSchedulerStatus(ctx)
}

// GetSchedulerStatus returns the timing view of the scheduler.
func (s *DrawServiceImpl) GetSchedulerStatus(ctx context.Context) (*models.SchedulerView, error) {
	now := s.now()
	settings, err := loadSettings(ctx, s.store, s.rules, now)
	if err != nil {
		return nil, err
	}
	state, err := loadScheduler(ctx, s.store, s.rules, settings, now)
	if err != nil {
		return nil, err
	}
	return schedulerView(state, settings, s.rules, now), nil
}

func schedulerView(state *models.SchedulerState, settings *models.GameSettings, rules Rules, now time.Time) *models.SchedulerView {
	status := state.Status
	if settings.EmergencyPaused && !state.HasPendingRequest() {
		status = models.SchedulerPaused
	}
	return &models.SchedulerView{
		LastDrawTime:      state.LastDrawTime,
		NextDrawTime:      utils.NextDrawTime(state.LastDrawTime, rules.DrawInterval),
		DrawInterval:      rules.DrawInterval.String(),
		Status:            status,
		PendingRequestID:  state.PendingRequestID,
		PendingDay:        state.PendingDay,
		CurrentDay:        utils.GameDayAt(now, settings.DayChangeHourUTC),
		AutomationEnabled: settings.AutomationEnabled,
		Paused:            settings.EmergencyPaused,
	}
}

func drawSeed(day int64, slot time.Time, attempt int) []byte {
	seed := make([]byte, 24)
	binary.BigEndian.PutUint64(seed[:8], uint64(day))
	binary.BigEndian.PutUint64(seed[8:16], uint64(slot.Unix()))
	binary.BigEndian.PutUint64(seed[16:], uint64(attempt))
	return seed
}

// encodePerformData encodes the target day as 8 big-endian bytes in hex.
func encodePerformData(day int64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(day))
	return hex.EncodeToString(b[:])
}

func decodePerformData(data string) (int64, bool) {
	b, err := hex.DecodeString(data)
	if err != nil || len(b) != 8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(b)), true
}
