package models

import "time"

// GameDay groups the tickets bought within one day-rollover period and tracks its draw lifecycle.
// Drawn and Distributed only ever flip from false to true.
type GameDay struct {
	Day            int64                 `bson:"_id" json:"day"`
	TotalCollected int64                 `bson:"totalCollected" json:"totalCollected"`
	PoolPortion    int64                 `bson:"poolPortion" json:"poolPortion"`
	ReservePortion int64                 `bson:"reservePortion" json:"reservePortion"`
	TicketIDs      []int64               `bson:"ticketIds" json:"ticketIds"`
	PoolsCredited  bool                  `bson:"poolsCredited" json:"poolsCredited"`
	DrawRequested  bool                  `bson:"drawRequested" json:"drawRequested"`
	RequestID      string                `bson:"requestId,omitempty" json:"requestId,omitempty"`
	DrawAttempts   int                   `bson:"drawAttempts" json:"drawAttempts"`
	Drawn          bool                  `bson:"drawn" json:"drawn"`
	WinningNumbers [NumbersPerTicket]int `bson:"winningNumbers" json:"winningNumbers"`
	DrawnAt        time.Time             `bson:"drawnAt,omitempty" json:"drawnAt,omitempty"`
	Distributed    bool                  `bson:"distributed" json:"distributed"`
	DistributedAt  time.Time             `bson:"distributedAt,omitempty" json:"distributedAt,omitempty"`
	TierWinners    map[Tier]int          `bson:"tierWinners,omitempty" json:"tierWinners,omitempty"`
	TierShares     map[Tier]int64        `bson:"tierShares,omitempty" json:"tierShares,omitempty"`
	CreatedAt      time.Time             `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time             `bson:"updatedAt" json:"updatedAt"`
}

// NewGameDay returns an empty record for day.
func NewGameDay(day int64, now time.Time) *GameDay {
	return &GameDay{
		Day:       day,
		TicketIDs: []int64{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasTickets reports whether any ticket was bought for the day.
func (d *GameDay) HasTickets() bool {
	return len(d.TicketIDs) > 0
}
