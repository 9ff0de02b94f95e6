package model

import (
	"fmt"
	"time"
)

// ExpirationStatus buckets an expiration date relative to today.
type ExpirationStatus string

// Expiration statuses, freshest last.
const (
	StatusExpired  ExpirationStatus = "expired"
	StatusExpiring ExpirationStatus = "expiring"
	StatusUseSoon  ExpirationStatus = "use-soon"
	StatusGood     ExpirationStatus = "good"
	StatusFresh    ExpirationStatus = "fresh"
	StatusNoDate   ExpirationStatus = "no-date"
)

// Label returns the human label for a status.
func (s ExpirationStatus) Label() string {
	switch s {
	case StatusExpired:
		return "Expired"
	case StatusExpiring:
		return "Expiring!"
	case StatusUseSoon:
		return "Use Soon"
	case StatusGood:
		return "Good"
	case StatusFresh:
		return "Fresh"
	default:
		return "No Date"
	}
}

// ExpirationStatusAt classifies date against the calendar day of now.
func ExpirationStatusAt(date *time.Time, now time.Time) ExpirationStatus {
	if date == nil {
		return StatusNoDate
	}

	days := daysUntil(*date, now)
	switch {
	case days < 0:
		return StatusExpired
	case days <= 7:
		return StatusExpiring
	case days <= 14:
		return StatusUseSoon
	case days <= 30:
		return StatusGood
	default:
		return StatusFresh
	}
}

// ExpiringSoon reports whether the status belongs in the "expiring soon" list.
func (s ExpirationStatus) ExpiringSoon() bool {
	return s == StatusExpiring || s == StatusUseSoon
}

// ExpirationText describes how far away date is from now.
func ExpirationText(date *time.Time, now time.Time) string {
	if date == nil {
		return "No expiration date"
	}

	days := daysUntil(*date, now)
	switch {
	case days < 0:
		return fmt.Sprintf("Expired %d days ago", -days)
	case days == 0:
		return "Expires today"
	case days == 1:
		return "Expires tomorrow"
	case days <= 7:
		return fmt.Sprintf("Expires in %d days", days)
	case days <= 30:
		return fmt.Sprintf("Expires in %d weeks", (days+6)/7)
	default:
		return fmt.Sprintf("Expires in %d months", (days+29)/30)
	}
}

// daysUntil counts whole calendar days from now to date in now's location.
func daysUntil(date, now time.Time) int {
	loc := now.Location()
	d := date.In(loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
