package repositories

import (
	"context"
	"errors"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
)

// ErrNotFound is returned by every repository when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Transactor runs fn atomically: every repository call made with the ctx passed to fn
// either commits together or not at all. Nested calls join the outer transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TicketRepository defines the interface for ticket data operations
type TicketRepository interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByID(ctx context.Context, id int64) (*models.Ticket, error)
	FindByDay(ctx context.Context, day int64) ([]*models.Ticket, error)
	FindByOwner(ctx context.Context, owner string, limit int) ([]*models.Ticket, error)
	Update(ctx context.Context, ticket *models.Ticket) error
}

// GameDayRepository defines the interface for game-day data operations
type GameDayRepository interface {
	FindByDay(ctx context.Context, day int64) (*models.GameDay, error)
	Save(ctx context.Context, day *models.GameDay) error
	// FindOldestUndrawnWithTickets returns the earliest day <= upTo that has tickets and no draw yet.
	FindOldestUndrawnWithTickets(ctx context.Context, upTo int64) (*models.GameDay, error)
	FindDrawnUndistributed(ctx context.Context) ([]*models.GameDay, error)
}

// BalancesRepository stores the single pool ledger document.
type BalancesRepository interface {
	// Get returns zero balances when nothing has been stored yet.
	Get(ctx context.Context) (*models.Balances, error)
	Save(ctx context.Context, balances *models.Balances) error
}

// SchedulerRepository stores the single draw scheduler document.
type SchedulerRepository interface {
	Get(ctx context.Context) (*models.SchedulerState, error)
	Save(ctx context.Context, state *models.SchedulerState) error
}

// RandomnessRepository defines the interface for randomness request operations
type RandomnessRepository interface {
	Create(ctx context.Context, req *models.RandomnessRequest) error
	FindByID(ctx context.Context, requestID string) (*models.RandomnessRequest, error)
	Update(ctx context.Context, req *models.RandomnessRequest) error
	FindByStatus(ctx context.Context, status models.RandomnessStatus) ([]*models.RandomnessRequest, error)
}

// SettingsRepository stores the versioned game settings and their audit trail.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.GameSettings, error)
	Save(ctx context.Context, settings *models.GameSettings) error
	AppendAudit(ctx context.Context, entry *models.SettingsAudit) error
	ListAudit(ctx context.Context, limit int) ([]*models.SettingsAudit, error)
}

// RolloverRepository defines the interface for tier rollover records
type RolloverRepository interface {
	Create(ctx context.Context, rollover *models.TierRollover) error
	FindBySourceDay(ctx context.Context, day int64) ([]*models.TierRollover, error)
}

// CreditRepository defines the interface for free-ticket credits
type CreditRepository interface {
	FindByOwner(ctx context.Context, owner string) (*models.PlayerCredit, error)
	Save(ctx context.Context, credit *models.PlayerCredit) error
}

// EventRepository defines the interface for the ledger event log
type EventRepository interface {
	Create(ctx context.Context, event *models.LedgerEvent) error
	FindByDay(ctx context.Context, day int64) ([]*models.LedgerEvent, error)
}

// AdminUserRepository defines the interface for admin user data operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) (*models.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}

// Store bundles one storage backend's repositories with its transactor.
type Store struct {
	Tx         Transactor
	Tickets    TicketRepository
	Days       GameDayRepository
	Balances   BalancesRepository
	Scheduler  SchedulerRepository
	Randomness RandomnessRepository
	Settings   SettingsRepository
	Rollovers  RolloverRepository
	Credits    CreditRepository
	Events     EventRepository
	AdminUsers AdminUserRepository
}
