package models

import "time"

// GameSettings is the versioned owner-controlled configuration entity.
// Every change bumps Version and appends a SettingsAudit entry.
type GameSettings struct {
	Version           int64     `bson:"version" json:"version"`
	TicketPrice       int64     `bson:"ticketPrice" json:"ticketPrice"`
	DrawHourUTC       int       `bson:"drawHourUtc" json:"drawHourUtc"`
	DayChangeHourUTC  int       `bson:"dayChangeHourUtc" json:"dayChangeHourUtc"`
	AutomationEnabled bool      `bson:"automationEnabled" json:"automationEnabled"`
	EmergencyPaused   bool      `bson:"emergencyPaused" json:"emergencyPaused"`
	UpdatedBy         string    `bson:"updatedBy" json:"updatedBy"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SettingsAudit records a single administrative change.
type SettingsAudit struct {
	Version  int64     `bson:"version" json:"version"`
	Field    string    `bson:"field" json:"field"`
	OldValue string    `bson:"oldValue" json:"oldValue"`
	NewValue string    `bson:"newValue" json:"newValue"`
	Actor    string    `bson:"actor" json:"actor"`
	At       time.Time `bson:"at" json:"at"`
}
