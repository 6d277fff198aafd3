package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/eventbus"
)

type outboxKey struct{}

type outbox struct {
	events []*models.LedgerEvent
}

// EventService records ledger events inside the emitting transaction and publishes them once
// that transaction has committed.
type EventService struct {
	store     *repositories.Store
	publisher eventbus.Publisher
	now       Clock
}

// NewEventService creates a new EventService. A nil publisher disables publishing.
func NewEventService(store *repositories.Store, publisher eventbus.Publisher, now Clock) *EventService {
	if publisher == nil {
		publisher = eventbus.Nop{}
	}
	return &EventService{store: store, publisher: publisher, now: now}
}

// InTransaction runs fn in a storage transaction. Events emitted by fn are published only
// after a successful commit. Nested calls join the outer transaction and its outbox.
func (s *EventService) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(outboxKey{}).(*outbox); ok {
		return s.store.Tx.WithTransaction(ctx, fn)
	}
	ob := &outbox{}
	txCtx := context.WithValue(ctx, outboxKey{}, ob)
	err := s.store.Tx.WithTransaction(txCtx, func(ctx context.Context) error {
		// The driver may retry fn; only the last attempt's events count.
		ob.events = ob.events[:0]
		return fn(ctx)
	})
	if err != nil {
		return err
	}
	if perr := s.publisher.Publish(ctx, ob.events); perr != nil {
		slog.Warn("Failed to publish ledger events", "error", perr, "count", len(ob.events))
	}
	return nil
}

// Emit stores an event in the current transaction.
func (s *EventService) Emit(ctx context.Context, eventType models.EventType, day, ticketID int64, payload map[string]interface{}) error {
	event := &models.LedgerEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Day:       day,
		TicketID:  ticketID,
		Payload:   payload,
		CreatedAt: s.now(),
	}
	if err := s.store.Events.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}
	if ob, ok := ctx.Value(outboxKey{}).(*outbox); ok {
		ob.events = append(ob.events, event)
	}
	return nil
}

// ListDayEvents returns the events recorded for a game-day.
func (s *EventService) ListDayEvents(ctx context.Context, day int64) ([]*models.LedgerEvent, error) {
	return s.store.Events.FindByDay(ctx, day)
}

func clockOrDefault(now Clock) Clock {
	if now == nil {
		return func() time.Time { return time.Now().UTC() }
	}
	return now
}
