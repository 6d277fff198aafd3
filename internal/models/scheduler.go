package models

import "time"

// SchedulerStatus is the draw scheduler's lifecycle state.
type SchedulerStatus string

const (
	SchedulerIdle                SchedulerStatus = "IDLE"
	SchedulerRandomnessRequested SchedulerStatus = "RANDOMNESS_REQUESTED"
	SchedulerPaused              SchedulerStatus = "PAUSED"
)

// SchedulerState is the persisted draw timing state.
// LastDrawTime is advanced in the same transaction that requests randomness.
type SchedulerState struct {
	LastDrawTime     time.Time       `bson:"lastDrawTime" json:"lastDrawTime"`
	Status           SchedulerStatus `bson:"status" json:"status"`
	PendingRequestID string          `bson:"pendingRequestId,omitempty" json:"pendingRequestId,omitempty"`
	PendingDay       int64           `bson:"pendingDay" json:"pendingDay"`
	LastUpkeepAt     time.Time       `bson:"lastUpkeepAt,omitempty" json:"lastUpkeepAt,omitempty"`
	UpdatedAt        time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// HasPendingRequest reports whether a randomness request is outstanding.
func (s *SchedulerState) HasPendingRequest() bool {
	return s.PendingRequestID != ""
}

// SchedulerView is the read-only timing snapshot served to operators.
type SchedulerView struct {
	LastDrawTime      time.Time       `json:"lastDrawTime"`
	NextDrawTime      time.Time       `json:"nextDrawTime"`
	DrawInterval      string          `json:"drawInterval"`
	Status            SchedulerStatus `json:"status"`
	PendingRequestID  string          `json:"pendingRequestId,omitempty"`
	PendingDay        int64           `json:"pendingDay,omitempty"`
	CurrentDay        int64           `json:"currentDay"`
	AutomationEnabled bool            `json:"automationEnabled"`
	Paused            bool            `json:"paused"`
}

// UpkeepCheck is the result of the side-effect free upkeep predicate.
type UpkeepCheck struct {
	Needed      bool      `json:"upkeepNeeded"`
	Reason      string    `json:"reason"`
	TargetDay   int64     `json:"targetDay"`
	PerformData string    `json:"performData"`
	CheckedAt   time.Time `json:"checkedAt"`
}

// UpkeepResult describes a performed upkeep.
type UpkeepResult struct {
	Day          int64     `json:"day"`
	RequestID    string    `json:"requestId"`
	LastDrawTime time.Time `json:"lastDrawTime"`
	Refilled     Reserves  `json:"refilled"`
}
