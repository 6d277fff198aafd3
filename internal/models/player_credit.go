package models

import "time"

// PlayerCredit holds the free-ticket credits an address has won.
type PlayerCredit struct {
	Owner       string    `bson:"_id" json:"owner"`
	FreeTickets int64     `bson:"freeTickets" json:"freeTickets"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
