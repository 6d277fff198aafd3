package models

import "time"

// NumbersPerTicket is the count of numbers chosen on every ticket.
const NumbersPerTicket = 4

// Ticket is a single purchased entry into a game-day.
// Owner and Numbers never change after purchase; the prize fields are written once by distribution.
type Ticket struct {
	ID              int64                 `bson:"_id" json:"id"`
	Owner           string                `bson:"owner" json:"owner"` // EIP-55 checksummed address
	Numbers         [NumbersPerTicket]int `bson:"numbers" json:"numbers"`
	Day             int64                 `bson:"day" json:"day"`
	PricePaid       int64                 `bson:"pricePaid" json:"pricePaid"`
	PaidWithCredit  bool                  `bson:"paidWithCredit" json:"paidWithCredit"`
	PurchasedAt     time.Time             `bson:"purchasedAt" json:"purchasedAt"`
	Tier            Tier                  `bson:"tier,omitempty" json:"tier,omitempty"`
	ExactMatches    int                   `bson:"exactMatches" json:"exactMatches"`
	AnyOrderMatches int                   `bson:"anyOrderMatches" json:"anyOrderMatches"`
	PrizeAmount     int64                 `bson:"prizeAmount" json:"prizeAmount"`
	Claimed         bool                  `bson:"claimed" json:"claimed"`
	ClaimedAt       time.Time             `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
}

// TicketView is a ticket together with its match against the day's winning numbers.
type TicketView struct {
	Ticket
	DayDrawn bool         `json:"dayDrawn"`
	Match    *MatchResult `json:"match,omitempty"`
}
