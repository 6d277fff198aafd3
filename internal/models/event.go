package models

import "time"

// EventType names an emitted ledger event.
type EventType string

const (
	EventTicketPurchased     EventType = "TICKET_PURCHASED"
	EventUpkeepPerformed     EventType = "UPKEEP_PERFORMED"
	EventRandomnessRequested EventType = "RANDOMNESS_REQUESTED"
	EventDrawFulfilled       EventType = "DRAW_FULFILLED"
	EventDayDistributed      EventType = "DAY_DISTRIBUTED"
	EventTierRolledOver      EventType = "TIER_ROLLED_OVER"
	EventPrizeClaimed        EventType = "PRIZE_CLAIMED"
	EventSettingsChanged     EventType = "SETTINGS_CHANGED"
	EventSchedulerRecovered  EventType = "SCHEDULER_RECOVERED"
)

// LedgerEvent is an append-only record of a state transition, also published to the event bus.
type LedgerEvent struct {
	ID        string                 `bson:"_id" json:"id"`
	Type      EventType              `bson:"type" json:"type"`
	Day       int64                  `bson:"day" json:"day"`
	TicketID  int64                  `bson:"ticketId,omitempty" json:"ticketId,omitempty"`
	Payload   map[string]interface{} `bson:"payload,omitempty" json:"payload,omitempty"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
}
