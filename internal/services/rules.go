package services

import (
	"time"

	"github.com/ArowuTest/daily-lotto-settlement/internal/config"
	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/utils"
)

// TierSplit is a percentage split across tiers. Development is only used for the pool split.
type TierSplit struct {
	First       int64
	Second      int64
	Third       int64
	Development int64
}

// Rules are the fixed game parameters. Runtime-adjustable values live in models.GameSettings;
// the fields prefixed Default seed those settings on first start.
type Rules struct {
	Numbers            utils.NumberRange
	MainPoolPercentage int64
	PoolSplit          TierSplit
	ReserveSplit       TierSplit
	MinPoolTickets     TierSplit
	DrawInterval       time.Duration
	RandomWords        int

	DefaultTicketPrice      int64
	DefaultDrawHourUTC      int
	DefaultDayChangeHourUTC int
}

// DefaultRules returns the standard daily game.
func DefaultRules() Rules {
	return Rules{
		Numbers:                 utils.NumberRange{Min: 0, Max: 24},
		MainPoolPercentage:      80,
		PoolSplit:               TierSplit{First: 60, Second: 20, Third: 10, Development: 10},
		ReserveSplit:            TierSplit{First: 50, Second: 30, Third: 20},
		MinPoolTickets:          TierSplit{First: 10, Second: 5, Third: 2},
		DrawInterval:            24 * time.Hour,
		RandomWords:             4,
		DefaultTicketPrice:      1_000_000,
		DefaultDrawHourUTC:      2,
		DefaultDayChangeHourUTC: 3,
	}
}

// RulesFromConfig maps the Lottery configuration section onto Rules.
func RulesFromConfig(cfg config.LotteryConfig) Rules {
	return Rules{
		Numbers:            utils.NumberRange{Min: cfg.MinNumber, Max: cfg.MaxNumber},
		MainPoolPercentage: cfg.MainPoolPercentage,
		PoolSplit: TierSplit{
			First:       cfg.FirstPrizePercentage,
			Second:      cfg.SecondPrizePercentage,
			Third:       cfg.ThirdPrizePercentage,
			Development: cfg.DevelopmentPercentage,
		},
		ReserveSplit: TierSplit{
			First:  cfg.FirstReservePercentage,
			Second: cfg.SecondReservePercentage,
			Third:  cfg.ThirdReservePercentage,
		},
		MinPoolTickets: TierSplit{
			First:  cfg.MinFirstPoolTickets,
			Second: cfg.MinSecondPoolTickets,
			Third:  cfg.MinThirdPoolTickets,
		},
		DrawInterval:            cfg.DrawInterval,
		RandomWords:             cfg.RandomWords,
		DefaultTicketPrice:      cfg.TicketPrice,
		DefaultDrawHourUTC:      cfg.DrawHourUTC,
		DefaultDayChangeHourUTC: cfg.DayChangeHourUTC,
	}
}

// minPoolTickets returns the refill threshold of a monetary tier in tickets.
func (r Rules) minPoolTickets(t models.Tier) int64 {
	switch t {
	case models.TierFirstPrize:
		return r.MinPoolTickets.First
	case models.TierSecondPrize:
		return r.MinPoolTickets.Second
	case models.TierThirdPrize:
		return r.MinPoolTickets.Third
	}
	return 0
}

// splitPurchase divides amount into its pool and reserve portions; the remainder stays in the pool.
func (r Rules) splitPurchase(amount int64) (pool, reserve int64) {
	reserve = amount * (100 - r.MainPoolPercentage) / 100
	return amount - reserve, reserve
}

// splitPool divides a day's pool portion into the main pools; the remainder goes to development.
func (r Rules) splitPool(pool int64) models.MainPools {
	p := models.MainPools{
		First:  pool * r.PoolSplit.First / 100,
		Second: pool * r.PoolSplit.Second / 100,
		Third:  pool * r.PoolSplit.Third / 100,
	}
	p.Development = pool - p.First - p.Second - p.Third
	return p
}

// splitReserve divides a day's reserve portion; the remainder goes to the first tier.
func (r Rules) splitReserve(reserve int64) models.Reserves {
	res := models.Reserves{
		Second: reserve * r.ReserveSplit.Second / 100,
		Third:  reserve * r.ReserveSplit.Third / 100,
	}
	res.First = reserve - res.Second - res.Third
	return res
}
