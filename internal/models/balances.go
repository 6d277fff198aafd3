package models

import "time"

// MainPools are the running prize balances plus the development pool.
type MainPools struct {
	First       int64 `bson:"first" json:"first"`
	Second      int64 `bson:"second" json:"second"`
	Third       int64 `bson:"third" json:"third"`
	Development int64 `bson:"development" json:"development"`
}

// Reserves are the per-tier holdback balances used to backfill main pools.
type Reserves struct {
	First  int64 `bson:"first" json:"first"`
	Second int64 `bson:"second" json:"second"`
	Third  int64 `bson:"third" json:"third"`
}

// Balances is the single ledger document holding every pooled amount.
type Balances struct {
	MainPools       MainPools `bson:"mainPools" json:"mainPools"`
	Reserves        Reserves  `bson:"reserves" json:"reserves"`
	UnclaimedPrizes int64     `bson:"unclaimedPrizes" json:"unclaimedPrizes"`
	ClaimedPrizes   int64     `bson:"claimedPrizes" json:"claimedPrizes"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Pool returns the main pool balance of a monetary tier.
func (p MainPools) Pool(t Tier) int64 {
	switch t {
	case TierFirstPrize:
		return p.First
	case TierSecondPrize:
		return p.Second
	case TierThirdPrize:
		return p.Third
	}
	return 0
}

// Add adjusts the main pool of a monetary tier by delta.
func (p *MainPools) Add(t Tier, delta int64) {
	switch t {
	case TierFirstPrize:
		p.First += delta
	case TierSecondPrize:
		p.Second += delta
	case TierThirdPrize:
		p.Third += delta
	}
}

// Total is the sum of every main pool including development.
func (p MainPools) Total() int64 {
	return p.First + p.Second + p.Third + p.Development
}

// Reserve returns the reserve balance of a monetary tier.
func (r Reserves) Reserve(t Tier) int64 {
	switch t {
	case TierFirstPrize:
		return r.First
	case TierSecondPrize:
		return r.Second
	case TierThirdPrize:
		return r.Third
	}
	return 0
}

// Add adjusts the reserve of a monetary tier by delta.
func (r *Reserves) Add(t Tier, delta int64) {
	switch t {
	case TierFirstPrize:
		r.First += delta
	case TierSecondPrize:
		r.Second += delta
	case TierThirdPrize:
		r.Third += delta
	}
}

// Total is the sum of all reserves.
func (r Reserves) Total() int64 {
	return r.First + r.Second + r.Third
}
