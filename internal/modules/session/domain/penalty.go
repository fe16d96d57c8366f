package domain

import "time"

// PenaltyPeriodStart returns the most recent occurrence of the reset hour at
// or before now, in now's location.
func PenaltyPeriodStart(now time.Time, resetHour int) time.Time {
	boundary := time.Date(now.Year(), now.Month(), now.Day(), resetHour, 0, 0, 0, now.Location())
	if now.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary
}

// PenaltyNextReset is the boundary after the current period.
func PenaltyNextReset(now time.Time, resetHour int) time.Time {
	return PenaltyPeriodStart(now, resetHour).AddDate(0, 0, 1)
}

// PenaltyMinutes converts qualifying unblock count into additional wait.
func PenaltyMinutes(count int, perUnblockSeconds float64) float64 {
	return float64(count) * perUnblockSeconds / 60
}
