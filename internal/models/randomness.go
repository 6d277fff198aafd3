package models

import "time"

// RandomnessStatus tracks a randomness request through the oracle.
type RandomnessStatus string

const (
	RandomnessPending   RandomnessStatus = "PENDING"
	RandomnessFulfilled RandomnessStatus = "FULFILLED"
	RandomnessAbandoned RandomnessStatus = "ABANDONED"
)

// RandomnessRequest is one request to the randomness oracle for a game-day.
type RandomnessRequest struct {
	RequestID   string           `bson:"_id" json:"requestId"`
	Day         int64            `bson:"day" json:"day"`
	Seed        string           `bson:"seed" json:"seed"`
	NumWords    int              `bson:"numWords" json:"numWords"`
	Status      RandomnessStatus `bson:"status" json:"status"`
	RandomWords []string         `bson:"randomWords,omitempty" json:"randomWords,omitempty"` // hex
	RequestedAt time.Time        `bson:"requestedAt" json:"requestedAt"`
	FulfilledAt time.Time        `bson:"fulfilledAt,omitempty" json:"fulfilledAt,omitempty"`
}
