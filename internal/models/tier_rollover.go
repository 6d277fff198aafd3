package models

import "time"

// TierRollover records a tier allocation carried forward because the tier had no winners.
type TierRollover struct {
	SourceDay      int64     `bson:"sourceDay" json:"sourceDay"`
	DestinationDay int64     `bson:"destinationDay" json:"destinationDay"`
	Tier           Tier      `bson:"tier" json:"tier"`
	Amount         int64     `bson:"amount" json:"amount"` // main pool balance left in place
	Reason         string    `bson:"reason" json:"reason"` // e.g. "NO_WINNERS"
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

const RolloverReasonNoWinners = "NO_WINNERS"
