package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
)

var (
	_ repositories.TicketRepository     = (*ticketRepository)(nil)
	_ repositories.GameDayRepository    = (*gameDayRepository)(nil)
	_ repositories.BalancesRepository   = (*balancesRepository)(nil)
	_ repositories.SchedulerRepository  = (*schedulerRepository)(nil)
	_ repositories.RandomnessRepository = (*randomnessRepository)(nil)
	_ repositories.SettingsRepository   = (*settingsRepository)(nil)
	_ repositories.RolloverRepository   = (*rolloverRepository)(nil)
	_ repositories.CreditRepository     = (*creditRepository)(nil)
	_ repositories.EventRepository      = (*eventRepository)(nil)
	_ repositories.AdminUserRepository  = (*adminUserRepository)(nil)
)

type ticketRepository struct{ db *DB }

func (r *ticketRepository) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.write(ctx, func(s *state) error {
		s.nextTicketID++
		id = s.nextTicketID
		return nil
	})
	return id, err
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.write(ctx, func(s *state) error {
		s.tickets[ticket.ID] = *ticket
		return nil
	})
}

func (r *ticketRepository) FindByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var out *models.Ticket
	err := r.db.read(ctx, func(s *state) error {
		t, ok := s.tickets[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *ticketRepository) FindByDay(ctx context.Context, day int64) ([]*models.Ticket, error) {
	return r.filter(ctx, 0, func(t *models.Ticket) bool { return t.Day == day })
}

func (r *ticketRepository) FindByOwner(ctx context.Context, owner string, limit int) ([]*models.Ticket, error) {
	return r.filter(ctx, limit, func(t *models.Ticket) bool { return strings.EqualFold(t.Owner, owner) })
}

func (r *ticketRepository) filter(ctx context.Context, limit int, match func(*models.Ticket) bool) ([]*models.Ticket, error) {
	var out []*models.Ticket
	err := r.db.read(ctx, func(s *state) error {
		for _, t := range s.tickets {
			t := t
			if match(&t) {
				out = append(out, &t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	return r.db.write(ctx, func(s *state) error {
		if _, ok := s.tickets[ticket.ID]; !ok {
			return repositories.ErrNotFound
		}
		s.tickets[ticket.ID] = *ticket
		return nil
	})
}

type gameDayRepository struct{ db *DB }

func (r *gameDayRepository) FindByDay(ctx context.Context, day int64) (*models.GameDay, error) {
	var out *models.GameDay
	err := r.db.read(ctx, func(s *state) error {
		d, ok := s.days[day]
		if !ok {
			return repositories.ErrNotFound
		}
		d = cloneDay(d)
		out = &d
		return nil
	})
	return out, err
}

func (r *gameDayRepository) Save(ctx context.Context, day *models.GameDay) error {
	return r.db.write(ctx, func(s *state) error {
		s.days[day.Day] = cloneDay(*day)
		return nil
	})
}

func (r *gameDayRepository) FindOldestUndrawnWithTickets(ctx context.Context, upTo int64) (*models.GameDay, error) {
	var out *models.GameDay
	err := r.db.read(ctx, func(s *state) error {
		for _, d := range s.days {
			if d.Drawn || d.Day > upTo || len(d.TicketIDs) == 0 {
				continue
			}
			if out == nil || d.Day < out.Day {
				c := cloneDay(d)
				out = &c
			}
		}
		if out == nil {
			return repositories.ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *gameDayRepository) FindDrawnUndistributed(ctx context.Context) ([]*models.GameDay, error) {
	var out []*models.GameDay
	err := r.db.read(ctx, func(s *state) error {
		for _, d := range s.days {
			if d.Drawn && !d.Distributed {
				c := cloneDay(d)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, err
}

type balancesRepository struct{ db *DB }

func (r *balancesRepository) Get(ctx context.Context) (*models.Balances, error) {
	out := &models.Balances{}
	err := r.db.read(ctx, func(s *state) error {
		if s.balances != nil {
			*out = *s.balances
		}
		return nil
	})
	return out, err
}

func (r *balancesRepository) Save(ctx context.Context, balances *models.Balances) error {
	return r.db.write(ctx, func(s *state) error {
		b := *balances
		s.balances = &b
		return nil
	})
}

type schedulerRepository struct{ db *DB }

func (r *schedulerRepository) Get(ctx context.Context) (*models.SchedulerState, error) {
	var out *models.SchedulerState
	err := r.db.read(ctx, func(s *state) error {
		if s.scheduler == nil {
			return repositories.ErrNotFound
		}
		st := *s.scheduler
		out = &st
		return nil
	})
	return out, err
}

func (r *schedulerRepository) Save(ctx context.Context, st *models.SchedulerState) error {
	return r.db.write(ctx, func(s *state) error {
		c := *st
		s.scheduler = &c
		return nil
	})
}

type randomnessRepository struct{ db *DB }

func (r *randomnessRepository) Create(ctx context.Context, req *models.RandomnessRequest) error {
	return r.db.write(ctx, func(s *state) error {
		s.randomness[req.RequestID] = cloneRequest(*req)
		return nil
	})
}

func (r *randomnessRepository) FindByID(ctx context.Context, requestID string) (*models.RandomnessRequest, error) {
	var out *models.RandomnessRequest
	err := r.db.read(ctx, func(s *state) error {
		req, ok := s.randomness[requestID]
		if !ok {
			return repositories.ErrNotFound
		}
		req = cloneRequest(req)
		out = &req
		return nil
	})
	return out, err
}

func (r *randomnessRepository) Update(ctx context.Context, req *models.RandomnessRequest) error {
	return r.db.write(ctx, func(s *state) error {
		if _, ok := s.randomness[req.RequestID]; !ok {
			return repositories.ErrNotFound
		}
		s.randomness[req.RequestID] = cloneRequest(*req)
		return nil
	})
}

func (r *randomnessRepository) FindByStatus(ctx context.Context, status models.RandomnessStatus) ([]*models.RandomnessRequest, error) {
	var out []*models.RandomnessRequest
	err := r.db.read(ctx, func(s *state) error {
		for _, req := range s.randomness {
			if req.Status == status {
				c := cloneRequest(req)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, err
}

type settingsRepository struct{ db *DB }

func (r *settingsRepository) Get(ctx context.Context) (*models.GameSettings, error) {
	var out *models.GameSettings
	err := r.db.read(ctx, func(s *state) error {
		if s.settings == nil {
			return repositories.ErrNotFound
		}
		st := *s.settings
		out = &st
		return nil
	})
	return out, err
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.GameSettings) error {
	return r.db.write(ctx, func(s *state) error {
		c := *settings
		s.settings = &c
		return nil
	})
}

func (r *settingsRepository) AppendAudit(ctx context.Context, entry *models.SettingsAudit) error {
	return r.db.write(ctx, func(s *state) error {
		s.audit = append(s.audit, *entry)
		return nil
	})
}

// ListAudit returns the newest entries first.
func (r *settingsRepository) ListAudit(ctx context.Context, limit int) ([]*models.SettingsAudit, error) {
	var out []*models.SettingsAudit
	err := r.db.read(ctx, func(s *state) error {
		for i := len(s.audit) - 1; i >= 0; i-- {
			if limit > 0 && len(out) >= limit {
				break
			}
			e := s.audit[i]
			out = append(out, &e)
		}
		return nil
	})
	return out, err
}

type rolloverRepository struct{ db *DB }

func (r *rolloverRepository) Create(ctx context.Context, rollover *models.TierRollover) error {
	return r.db.write(ctx, func(s *state) error {
		s.rollovers = append(s.rollovers, *rollover)
		return nil
	})
}

func (r *rolloverRepository) FindBySourceDay(ctx context.Context, day int64) ([]*models.TierRollover, error) {
	var out []*models.TierRollover
	err := r.db.read(ctx, func(s *state) error {
		for _, ro := range s.rollovers {
			if ro.SourceDay == day {
				ro := ro
				out = append(out, &ro)
			}
		}
		return nil
	})
	return out, err
}

type creditRepository struct{ db *DB }

func (r *creditRepository) FindByOwner(ctx context.Context, owner string) (*models.PlayerCredit, error) {
	var out *models.PlayerCredit
	err := r.db.read(ctx, func(s *state) error {
		c, ok := s.credits[strings.ToLower(owner)]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *creditRepository) Save(ctx context.Context, credit *models.PlayerCredit) error {
	return r.db.write(ctx, func(s *state) error {
		s.credits[strings.ToLower(credit.Owner)] = *credit
		return nil
	})
}

type eventRepository struct{ db *DB }

func (r *eventRepository) Create(ctx context.Context, event *models.LedgerEvent) error {
	return r.db.write(ctx, func(s *state) error {
		s.events = append(s.events, *event)
		return nil
	})
}

func (r *eventRepository) FindByDay(ctx context.Context, day int64) ([]*models.LedgerEvent, error) {
	var out []*models.LedgerEvent
	err := r.db.read(ctx, func(s *state) error {
		for _, e := range s.events {
			if e.Day == day {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	return out, err
}

type adminUserRepository struct{ db *DB }

func (r *adminUserRepository) Create(ctx context.Context, adminUser *models.AdminUser) (*models.AdminUser, error) {
	err := r.db.write(ctx, func(s *state) error {
		s.admins[strings.ToLower(adminUser.Email)] = *adminUser
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adminUser, nil
}

func (r *adminUserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var out *models.AdminUser
	err := r.db.read(ctx, func(s *state) error {
		u, ok := s.admins[strings.ToLower(email)]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}
