package services

import (
	"context"
	"math/big"
	"time"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/eventbus"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/jwt"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/token"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/vrf"
)

// TicketService defines the interface for ticket ledger operations
type TicketService interface {
	// BuyTicket pays for (or redeems a credit for) a ticket in the open game-day
	BuyTicket(ctx context.Context, payer string, numbers []int, useCredit bool) (*models.Ticket, error)

	// GetTicket returns a ticket with its match against the drawn numbers, if any
	GetTicket(ctx context.Context, id int64) (*models.TicketView, error)

	GetDayTickets(ctx context.Context, day int64) ([]int64, error)
	ListOwnerTickets(ctx context.Context, owner string, limit int) ([]*models.Ticket, error)
	GetCredits(ctx context.Context, owner string) (*models.PlayerCredit, error)
	GetDay(ctx context.Context, day int64) (*models.GameDay, error)
	CurrentDay(ctx context.Context) (int64, error)
}

// PoolService defines the interface for pool accounting
type PoolService interface {
	CreditPurchase(ctx context.Context, day int64, amount int64) error
	MaterializeDay(ctx context.Context, day int64) (*models.GameDay, error)
	RefillFromReserves(ctx context.Context) (models.Reserves, error)
	GetBalances(ctx context.Context) (*models.Balances, error)
	GetMainPoolBalances(ctx context.Context) (models.MainPools, error)
	GetReserveBalances(ctx context.Context) (models.Reserves, error)
}

// DrawService defines the interface for the draw scheduler
type DrawService interface {
	// Bootstrap persists the initial scheduler state and settings if they do not exist yet
	Bootstrap(ctx context.Context) error

	// CheckUpkeep reports whether a draw is due; it never changes state
	CheckUpkeep(ctx context.Context) (*models.UpkeepCheck, error)

	// PerformUpkeep starts the due draw by requesting randomness
	PerformUpkeep(ctx context.Context, performData string) (*models.UpkeepResult, error)

	// OnRandomnessFulfilled records the winning numbers and distributes the day
	OnRandomnessFulfilled(ctx context.Context, requestID string, words []*big.Int) (*models.GameDay, error)

	RecoverScheduler(ctx context.Context, caller Caller) (*models.SchedulerView, error)
	GetSchedulerStatus(ctx context.Context) (*models.SchedulerView, error)
}

// PrizeService defines the interface for prize resolution
type PrizeService interface {
	DistributeDay(ctx context.Context, day int64) (*models.GameDay, error)
	RetryPendingDistributions(ctx context.Context) ([]int64, error)
	ClaimPrize(ctx context.Context, caller string, ticketID int64) (*models.Ticket, error)
	ClassifyTicket(numbers, winning [models.NumbersPerTicket]int) models.MatchResult
}

// AdminService defines the interface for owner-only settings management
type AdminService interface {
	GetSettings(ctx context.Context) (*models.GameSettings, error)
	ListSettingsAudit(ctx context.Context, limit int) ([]*models.SettingsAudit, error)
	SetTicketPrice(ctx context.Context, caller Caller, price int64) (*models.GameSettings, error)
	SetDrawHour(ctx context.Context, caller Caller, hour int) (*models.GameSettings, error)
	SetDayChangeHour(ctx context.Context, caller Caller, hour int) (*models.GameSettings, error)
	SetLastDrawTime(ctx context.Context, caller Caller, t time.Time) (*models.SchedulerView, error)
	SetAutomationEnabled(ctx context.Context, caller Caller, enabled bool) (*models.GameSettings, error)
	SetEmergencyPause(ctx context.Context, caller Caller, paused bool) (*models.GameSettings, error)
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	CreateOwner(ctx context.Context, email, password, address string) (*models.AdminUser, error)
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Store       *repositories.Store
	Token       token.Token
	Coordinator vrf.Coordinator
	Publisher   eventbus.Publisher
	Tokens      *jwt.TokenService
	Rules       Rules
	Clock       Clock
}

// Services is the wired set of settlement services.
type Services struct {
	Events  *EventService
	Pools   *PoolServiceImpl
	Tickets *TicketServiceImpl
	Prizes  *PrizeServiceImpl
	Draws   *DrawServiceImpl
	Admin   *AdminServiceImpl
	Auth    AuthService
}

// New wires the services over one store.
func New(d Deps) *Services {
	now := clockOrDefault(d.Clock)
	events := NewEventService(d.Store, d.Publisher, now)
	pools := NewPoolService(d.Store, d.Rules, now)
	prizes := NewPrizeService(d.Store, pools, d.Token, events, d.Rules, now)
	svc := &Services{
		Events:  events,
		Pools:   pools,
		Tickets: NewTicketService(d.Store, pools, d.Token, events, d.Rules, now),
		Prizes:  prizes,
		Draws:   NewDrawService(d.Store, pools, prizes, d.Coordinator, events, d.Rules, now),
		Admin:   NewAdminService(d.Store, events, d.Rules, now),
	}
	if d.Tokens != nil {
		svc.Auth = NewAuthService(d.Store.AdminUsers, d.Tokens, now)
	}
	return svc
}
