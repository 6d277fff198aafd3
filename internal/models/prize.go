package models

// Tier is the prize classification of a ticket after its game-day is drawn.
type Tier string

const (
	TierFirstPrize  Tier = "FIRST_PRIZE"
	TierSecondPrize Tier = "SECOND_PRIZE"
	TierThirdPrize  Tier = "THIRD_PRIZE"
	TierFreeTickets Tier = "FREE_TICKETS"
	TierNoPrize     Tier = "NO_PRIZE"
)

// MonetaryTiers are the tiers paid out of a main pool, in payout order.
var MonetaryTiers = []Tier{TierFirstPrize, TierSecondPrize, TierThirdPrize}

// IsMonetary reports whether the tier is paid from a main pool.
func (t Tier) IsMonetary() bool {
	return t == TierFirstPrize || t == TierSecondPrize || t == TierThirdPrize
}

// IsWinning reports whether the tier carries any prize, monetary or not.
func (t Tier) IsWinning() bool {
	return t != TierNoPrize && t != ""
}

// MatchResult is the outcome of comparing a ticket against the winning numbers.
type MatchResult struct {
	ExactMatches    int  `bson:"exactMatches" json:"exactMatches"`
	AnyOrderMatches int  `bson:"anyOrderMatches" json:"anyOrderMatches"`
	Tier            Tier `bson:"tier" json:"tier"`
}
