// Package memory is an in-process storage backend. A single writer lock serializes
// transactions; a failed transaction restores the snapshot taken when it began.
package memory

import (
	"context"
	"sync"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
)

type txKey struct{}

type state struct {
	nextTicketID int64
	tickets      map[int64]models.Ticket
	days         map[int64]models.GameDay
	balances     *models.Balances
	scheduler    *models.SchedulerState
	randomness   map[string]models.RandomnessRequest
	settings     *models.GameSettings
	audit        []models.SettingsAudit
	rollovers    []models.TierRollover
	credits      map[string]models.PlayerCredit
	events       []models.LedgerEvent
	admins       map[string]models.AdminUser
}

func newState() *state {
	return &state{
		tickets:    make(map[int64]models.Ticket),
		days:       make(map[int64]models.GameDay),
		randomness: make(map[string]models.RandomnessRequest),
		credits:    make(map[string]models.PlayerCredit),
		admins:     make(map[string]models.AdminUser),
	}
}

func (s *state) clone() *state {
	c := &state{
		nextTicketID: s.nextTicketID,
		tickets:      make(map[int64]models.Ticket, len(s.tickets)),
		days:         make(map[int64]models.GameDay, len(s.days)),
		randomness:   make(map[string]models.RandomnessRequest, len(s.randomness)),
		audit:        append([]models.SettingsAudit(nil), s.audit...),
		rollovers:    append([]models.TierRollover(nil), s.rollovers...),
		credits:      make(map[string]models.PlayerCredit, len(s.credits)),
		events:       append([]models.LedgerEvent(nil), s.events...),
		admins:       make(map[string]models.AdminUser, len(s.admins)),
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.days {
		c.days[k] = cloneDay(v)
	}
	for k, v := range s.randomness {
		c.randomness[k] = cloneRequest(v)
	}
	for k, v := range s.credits {
		c.credits[k] = v
	}
	for k, v := range s.admins {
		c.admins[k] = v
	}
	if s.balances != nil {
		b := *s.balances
		c.balances = &b
	}
	if s.scheduler != nil {
		sc := *s.scheduler
		c.scheduler = &sc
	}
	if s.settings != nil {
		st := *s.settings
		c.settings = &st
	}
	return c
}

func cloneDay(d models.GameDay) models.GameDay {
	d.TicketIDs = append([]int64{}, d.TicketIDs...)
	if d.TierWinners != nil {
		w := make(map[models.Tier]int, len(d.TierWinners))
		for k, v := range d.TierWinners {
			w[k] = v
		}
		d.TierWinners = w
	}
	if d.TierShares != nil {
		sh := make(map[models.Tier]int64, len(d.TierShares))
		for k, v := range d.TierShares {
			sh[k] = v
		}
		d.TierShares = sh
	}
	return d
}

func cloneRequest(r models.RandomnessRequest) models.RandomnessRequest {
	r.RandomWords = append([]string(nil), r.RandomWords...)
	return r
}

// DB holds all records of the memory backend.
type DB struct {
	mu   sync.RWMutex
	data *state
}

// NewStore returns a repositories.Store backed by a fresh in-memory database.
func NewStore() *repositories.Store {
	db := &DB{data: newState()}
	return &repositories.Store{
		Tx:         db,
		Tickets:    &ticketRepository{db},
		Days:       &gameDayRepository{db},
		Balances:   &balancesRepository{db},
		Scheduler:  &schedulerRepository{db},
		Randomness: &randomnessRepository{db},
		Settings:   &settingsRepository{db},
		Rollovers:  &rolloverRepository{db},
		Credits:    &creditRepository{db},
		Events:     &eventRepository{db},
		AdminUsers: &adminUserRepository{db},
	}
}

// WithTransaction holds the writer lock for the duration of fn and rolls back on error.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.data.clone()
	err := fn(context.WithValue(ctx, txKey{}, true))
	if err != nil {
		db.data = snapshot
	}
	return err
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

func (db *DB) read(ctx context.Context, fn func(s *state) error) error {
	if !inTx(ctx) {
		db.mu.RLock()
		defer db.mu.RUnlock()
	}
	return fn(db.data)
}

func (db *DB) write(ctx context.Context, fn func(s *state) error) error {
	if !inTx(ctx) {
		db.mu.Lock()
		defer db.mu.Unlock()
	}
	return fn(db.data)
}
