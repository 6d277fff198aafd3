package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/daily-lotto-settlement/internal/metrics"
	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	"github.com/ArowuTest/daily-lotto-settlement/internal/utils"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/token"
)

var _ TicketService = (*TicketServiceImpl)(nil)

// TicketServiceImpl is the ticket ledger.
type TicketServiceImpl struct {
	store  *repositories.Store
	pools  *PoolServiceImpl
	token  token.Token
	events *EventService
	rules  Rules
	now    Clock
}

// NewTicketService creates a new TicketServiceImpl
func NewTicketService(store *repositories.Store, pools *PoolServiceImpl, tok token.Token, events *EventService, rules Rules, now Clock) *TicketServiceImpl {
	return &TicketServiceImpl{
		store:  store,
		pools:  pools,
		token:  tok,
		events: events,
		rules:  rules,
		now:    clockOrDefault(now),
	}
}

// BuyTicket records a ticket for the open game-day. Payment, ID assignment, pool credit and the
// event commit together; a failed payment leaves no trace.
func (s *TicketServiceImpl) BuyTicket(ctx context.Context, payer string, numbers []int, useCredit bool) (*models.Ticket, error) {
	owner, err := token.NormalizeAddress(payer)
	if err != nil {
		return nil, wrap(ErrInvalidAddress, "%q", payer)
	}
	if err := utils.ValidateNumbers(numbers, s.rules.Numbers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumbers, err)
	}

	var ticket *models.Ticket
	err = s.events.InTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		settings, err := loadSettings(ctx, s.store, s.rules, now)
		if err != nil {
			return err
		}
		day, err := s.openDay(ctx, settings)
		if err != nil {
			return err
		}

		price := settings.TicketPrice
		if useCredit {
			if err := s.consumeCredit(ctx, owner); err != nil {
				return err
			}
			price = 0
		}

		id, err := s.store.Tickets.NextID(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate ticket id: %w", err)
		}
		ticket = &models.Ticket{
			ID:             id,
			Owner:          owner,
			Numbers:        utils.ToArray(numbers),
			Day:            day.Day,
			PricePaid:      price,
			PaidWithCredit: useCredit,
			PurchasedAt:    now,
			Tier:           models.TierNoPrize,
		}
		if err := s.store.Tickets.Create(ctx, ticket); err != nil {
			return fmt.Errorf("failed to save ticket: %w", err)
		}

		day.TicketIDs = append(day.TicketIDs, id)
		day.UpdatedAt = now
		if err := s.store.Days.Save(ctx, day); err != nil {
			return fmt.Errorf("failed to save day %d: %w", day.Day, err)
		}
		if err := s.pools.CreditPurchase(ctx, day.Day, price); err != nil {
			return err
		}

		if err := s.events.Emit(ctx, models.EventTicketPurchased, day.Day, id, map[string]interface{}{
			"owner":     owner,
			"numbers":   ticket.Numbers[:],
			"pricePaid": price,
			"credit":    useCredit,
		}); err != nil {
			return err
		}

		// Payment goes last so nothing else can fail after tokens moved.
		if !useCredit {
			if err := s.token.TransferFrom(ctx, owner, price); err != nil {
				return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
			}
		}
		return nil
	})
	if err != nil {
		slog.Warn("Ticket purchase failed", "error", err, "payer", owner)
		return nil, err
	}

	metrics.TicketSold(useCredit)
	s.pools.observe(ctx)
	slog.Info("Ticket purchased", "ticketId", ticket.ID, "day", ticket.Day, "owner", owner, "credit", useCredit)
	return ticket, nil
}

// openDay returns the game-day purchases currently go to. A day whose draw has started is
// closed, so purchases move on to the following day.
func (s *TicketServiceImpl) openDay(ctx context.Context, settings *models.GameSettings) (*models.GameDay, error) {
	now := s.now()
	d := utils.GameDayAt(now, settings.DayChangeHourUTC)
	for {
		day, err := findOrNewDay(ctx, s.store, d, now)
		if err != nil {
			return nil, err
		}
		if !day.DrawRequested && !day.Drawn {
			return day, nil
		}
		d++
	}
}

func (s *TicketServiceImpl) consumeCredit(ctx context.Context, owner string) error {
	credit, err := s.store.Credits.FindByOwner(ctx, owner)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNoFreeTickets
	}
	if err != nil {
		return fmt.Errorf("failed to load credits: %w", err)
	}
	if credit.FreeTickets < 1 {
		return ErrNoFreeTickets
	}
	credit.FreeTickets--
	credit.UpdatedAt = s.now()
	if err := s.store.Credits.Save(ctx, credit); err != nil {
		return fmt.Errorf("failed to save credits: %w", err)
	}
	return nil
}

// GetTicket returns the ticket and, once its day is drawn, how it matched.
func (s *TicketServiceImpl) GetTicket(ctx context.Context, id int64) (*models.TicketView, error) {
	ticket, err := s.store.Tickets.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, wrap(ErrTicketNotFound, "id %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket %d: %w", id, err)
	}
	view := &models.TicketView{Ticket: *ticket}

	day, err := s.store.Days.FindByDay(ctx, ticket.Day)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load day %d: %w", ticket.Day, err)
	}
	if day != nil && day.Drawn {
		match := utils.Classify(ticket.Numbers, day.WinningNumbers)
		view.DayDrawn = true
		view.Match = &match
	}
	return view, nil
}

// GetDayTickets returns the IDs sold for a day, empty for unknown days.
func (s *TicketServiceImpl) GetDayTickets(ctx context.Context, dayNum int64) ([]int64, error) {
	day, err := s.store.Days.FindByDay(ctx, dayNum)
	if errors.Is(err, repositories.ErrNotFound) {
		return []int64{}, nil
	}
	if err != nil {
		return nil, err
	}
	return day.TicketIDs, nil
}

func (s *TicketServiceImpl) ListOwnerTickets(ctx context.Context, owner string, limit int) ([]*models.Ticket, error) {
	addr, err := token.NormalizeAddress(owner)
	if err != nil {
		return nil, wrap(ErrInvalidAddress, "%q", owner)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.Tickets.FindByOwner(ctx, addr, limit)
}

// GetCredits returns the free-ticket credits of owner; zero when none were ever granted.
func (s *TicketServiceImpl) GetCredits(ctx context.Context, owner string) (*models.PlayerCredit, error) {
	addr, err := token.NormalizeAddress(owner)
	if err != nil {
		return nil, wrap(ErrInvalidAddress, "%q", owner)
	}
	credit, err := s.store.Credits.FindByOwner(ctx, addr)
	if errors.Is(err, repositories.ErrNotFound) {
		return &models.PlayerCredit{Owner: addr}, nil
	}
	return credit, err
}

func (s *TicketServiceImpl) GetDay(ctx context.Context, dayNum int64) (*models.GameDay, error) {
	day, err := s.store.Days.FindByDay(ctx, dayNum)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, wrap(ErrDayNotFound, "day %d", dayNum)
	}
	return day, err
}

// CurrentDay is the calendar game-day of now.
func (s *TicketServiceImpl) CurrentDay(ctx context.Context) (int64, error) {
	now := s.now()
	settings, err := loadSettings(ctx, s.store, s.rules, now)
	if err != nil {
		return 0, err
	}
	return utils.GameDayAt(now, settings.DayChangeHourUTC), nil
}
