package utils

import "time"

const secondsPerDay = 24 * 60 * 60

// GameDayAt returns the game-day index of t: floor((t - dayChangeHour) / 24h).
// Game-days roll over at dayChangeHourUTC, independently of the draw hour.
func GameDayAt(t time.Time, dayChangeHourUTC int) int64 {
	shifted := t.Unix() - int64(dayChangeHourUTC)*3600
	return floorDiv(shifted, secondsPerDay)
}

// GameDayStart returns the instant game-day day begins.
func GameDayStart(day int64, dayChangeHourUTC int) time.Time {
	return time.Unix(day*secondsPerDay+int64(dayChangeHourUTC)*3600, 0).UTC()
}

// AlignedSlot returns the most recent draw slot at or before t. Slots are spaced interval apart
// and anchored at drawHourUTC past the Unix epoch.
func AlignedSlot(t time.Time, drawHourUTC int, interval time.Duration) time.Time {
	step := int64(interval / time.Second)
	if step <= 0 {
		return t.UTC()
	}
	anchor := int64(drawHourUTC) * 3600
	n := floorDiv(t.Unix()-anchor, step)
	return time.Unix(n*step+anchor, 0).UTC()
}

// NextDrawTime is lastDrawTime + interval.
func NextDrawTime(lastDrawTime time.Time, interval time.Duration) time.Time {
	return lastDrawTime.Add(interval)
}

// ValidHour reports whether h is a valid hour of day.
func ValidHour(h int) bool {
	return h >= 0 && h <= 23
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
