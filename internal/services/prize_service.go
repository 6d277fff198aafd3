package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/daily-lotto-settlement/internal/metrics"
	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	"github.com/ArowuTest/daily-lotto-settlement/internal/utils"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/token"
)

var _ PrizeService = (*PrizeServiceImpl)(nil)

// PrizeServiceImpl classifies tickets, splits pools among winners and pays claims.
type PrizeServiceImpl struct {
	store  *repositories.Store
	pools  *PoolServiceImpl
	token  token.Token
	events *EventService
	rules  Rules
	now    Clock
}

// NewPrizeService creates a new PrizeServiceImpl
func NewPrizeService(store *repositories.Store, pools *PoolServiceImpl, tok token.Token, events *EventService, rules Rules, now Clock) *PrizeServiceImpl {
	return &PrizeServiceImpl{
		store:  store,
		pools:  pools,
		token:  tok,
		events: events,
		rules:  rules,
		now:    clockOrDefault(now),
	}
}

// ClassifyTicket is the pure tier classification.
func (s *PrizeServiceImpl) ClassifyTicket(numbers, winning [models.NumbersPerTicket]int) models.MatchResult {
	return utils.Classify(numbers, winning)
}

// DistributeDay allocates the monetary pools of a drawn day to its winners. Each winner of a tier
// is owed pool/n; the remainder stays in the pool. Tiers nobody won keep their pool for the
// next day. Runs at most once per day.
func (s *PrizeServiceImpl) DistributeDay(ctx context.Context, dayNum int64) (*models.GameDay, error) {
	var result *models.GameDay
	err := s.events.InTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		day, err := s.store.Days.FindByDay(ctx, dayNum)
		if errors.Is(err, repositories.ErrNotFound) {
			return wrap(ErrDayNotFound, "day %d", dayNum)
		}
		if err != nil {
			return fmt.Errorf("failed to load day %d: %w", dayNum, err)
		}
		if !day.Drawn {
			return wrap(ErrDayNotDrawn, "day %d", dayNum)
		}
		if day.Distributed {
			return wrap(ErrAlreadyDistributed, "day %d", dayNum)
		}

		tickets, err := s.store.Tickets.FindByDay(ctx, dayNum)
		if err != nil {
			return fmt.Errorf("failed to load tickets of day %d: %w", dayNum, err)
		}
		winners := make(map[models.Tier][]*models.Ticket)
		for _, t := range tickets {
			match := utils.Classify(t.Numbers, day.WinningNumbers)
			t.Tier = match.Tier
			t.ExactMatches = match.ExactMatches
			t.AnyOrderMatches = match.AnyOrderMatches
			if match.Tier.IsWinning() {
				winners[match.Tier] = append(winners[match.Tier], t)
			}
		}

		balances, err := s.store.Balances.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to load balances: %w", err)
		}
		day.TierWinners = make(map[models.Tier]int)
		day.TierShares = make(map[models.Tier]int64)
		var rollovers []*models.TierRollover
		for _, tier := range models.MonetaryTiers {
			n := int64(len(winners[tier]))
			day.TierWinners[tier] = int(n)
			pool := balances.MainPools.Pool(tier)
			if n == 0 {
				rollovers = append(rollovers, &models.TierRollover{
					SourceDay:      dayNum,
					DestinationDay: dayNum + 1,
					Tier:           tier,
					Amount:         pool,
					Reason:         models.RolloverReasonNoWinners,
					CreatedAt:      now,
				})
				continue
			}
			share := pool / n
			day.TierShares[tier] = share
			balances.MainPools.Add(tier, -share*n)
			balances.UnclaimedPrizes += share * n
			for _, t := range winners[tier] {
				t.PrizeAmount = share
			}
		}
		day.TierWinners[models.TierFreeTickets] = len(winners[models.TierFreeTickets])

		for _, t := range tickets {
			if err := s.store.Tickets.Update(ctx, t); err != nil {
				return fmt.Errorf("failed to update ticket %d: %w", t.ID, err)
			}
		}
		if err := s.pools.saveBalances(ctx, balances); err != nil {
			return err
		}
		for _, ro := range rollovers {
			if err := s.store.Rollovers.Create(ctx, ro); err != nil {
				return fmt.Errorf("failed to record rollover: %w", err)
			}
			if err := s.events.Emit(ctx, models.EventTierRolledOver, dayNum, 0, map[string]interface{}{
				"tier":           string(ro.Tier),
				"amount":         ro.Amount,
				"destinationDay": ro.DestinationDay,
			}); err != nil {
				return err
			}
		}
		if _, err := s.pools.RefillFromReserves(ctx); err != nil {
			return err
		}

		day.Distributed = true
		day.DistributedAt = now
		day.UpdatedAt = now
		if err := s.store.Days.Save(ctx, day); err != nil {
			return fmt.Errorf("failed to save day %d: %w", dayNum, err)
		}
		if err := s.events.Emit(ctx, models.EventDayDistributed, dayNum, 0, map[string]interface{}{
			"winners": tierCounts(day.TierWinners),
			"shares":  tierAmounts(day.TierShares),
		}); err != nil {
			return err
		}
		result = day
		return nil
	})
	if err != nil {
		if KindOf(err) != KindTiming {
			metrics.Distribution(false)
		}
		return nil, err
	}
	metrics.Distribution(true)
	s.pools.observe(ctx)
	slog.Info("Day distributed", "day", dayNum, "winners", result.TierWinners, "shares", result.TierShares)
	return result, nil
}

// RetryPendingDistributions distributes every drawn day still waiting for it and returns the
// days that succeeded. The first failure is returned after all days were attempted.
func (s *PrizeServiceImpl) RetryPendingDistributions(ctx context.Context) ([]int64, error) {
	days, err := s.store.Days.FindDrawnUndistributed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list undistributed days: %w", err)
	}
	var done []int64
	var firstErr error
	for _, d := range days {
		if _, err := s.DistributeDay(ctx, d.Day); err != nil {
			slog.Error("Distribution retry failed", "error", err, "day", d.Day)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		done = append(done, d.Day)
	}
	return done, firstErr
}

// ClaimPrize pays the holder of a winning ticket. Monetary prizes are transferred from the
// treasury; a free-tickets win grants one ticket credit.
func (s *PrizeServiceImpl) ClaimPrize(ctx context.Context, caller string, ticketID int64) (*models.Ticket, error) {
	var claimed *models.Ticket
	err := s.events.InTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		ticket, err := s.store.Tickets.FindByID(ctx, ticketID)
		if errors.Is(err, repositories.ErrNotFound) {
			return wrap(ErrTicketNotFound, "id %d", ticketID)
		}
		if err != nil {
			return fmt.Errorf("failed to load ticket %d: %w", ticketID, err)
		}
		if !strings.EqualFold(ticket.Owner, caller) {
			return ErrNotTicketHolder
		}
		day, err := s.store.Days.FindByDay(ctx, ticket.Day)
		if err != nil {
			return fmt.Errorf("failed to load day %d: %w", ticket.Day, err)
		}
		if !day.Distributed {
			return wrap(ErrDayNotDistributed, "day %d", ticket.Day)
		}
		if ticket.Claimed {
			return ErrAlreadyClaimed
		}
		if !ticket.Tier.IsWinning() {
			return ErrNotWinner
		}

		ticket.Claimed = true
		ticket.ClaimedAt = now
		if err := s.store.Tickets.Update(ctx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket %d: %w", ticketID, err)
		}

		switch {
		case ticket.Tier.IsMonetary():
			if err := s.payOut(ctx, ticket); err != nil {
				return err
			}
		case ticket.Tier == models.TierFreeTickets:
			if err := s.grantCredit(ctx, ticket.Owner, now); err != nil {
				return err
			}
		}

		if err := s.events.Emit(ctx, models.EventPrizeClaimed, ticket.Day, ticket.ID, map[string]interface{}{
			"owner":  ticket.Owner,
			"tier":   string(ticket.Tier),
			"amount": ticket.PrizeAmount,
		}); err != nil {
			return err
		}
		claimed = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.PrizeClaimed(claimed.Tier)
	slog.Info("Prize claimed", "ticketId", ticketID, "tier", claimed.Tier, "amount", claimed.PrizeAmount, "owner", claimed.Owner)
	return claimed, nil
}

func (s *PrizeServiceImpl) payOut(ctx context.Context, ticket *models.Ticket) error {
	if ticket.PrizeAmount == 0 {
		return nil
	}
	balances, err := s.store.Balances.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load balances: %w", err)
	}
	balances.UnclaimedPrizes -= ticket.PrizeAmount
	balances.ClaimedPrizes += ticket.PrizeAmount
	if err := s.pools.saveBalances(ctx, balances); err != nil {
		return err
	}
	if err := s.token.Transfer(ctx, ticket.Owner, ticket.PrizeAmount); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	return nil
}

func (s *PrizeServiceImpl) grantCredit(ctx context.Context, owner string, now time.Time) error {
	credit, err := s.store.Credits.FindByOwner(ctx, owner)
	if errors.Is(err, repositories.ErrNotFound) {
		credit = &models.PlayerCredit{Owner: owner}
	} else if err != nil {
		return fmt.Errorf("failed to load credits: %w", err)
	}
	credit.FreeTickets++
	credit.UpdatedAt = now
	if err := s.store.Credits.Save(ctx, credit); err != nil {
		return fmt.Errorf("failed to save credits: %w", err)
	}
	return nil
}

func tierCounts(m map[models.Tier]int) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func tierAmounts(m map[models.Tier]int64) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
