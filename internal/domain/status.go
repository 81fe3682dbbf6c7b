package domain

import (
	"fmt"
	"math"
	"time"
)

// Severity buckets a product's days-remaining-until-expiry into a display
// category. Neutral means no expiry date is set.
type Severity string

const (
	SeverityExpired Severity = "expired"
	SeverityWarning Severity = "warning"
	SeverityOK      Severity = "ok"
	SeverityNeutral Severity = "neutral"
)

// warningWindowDays is the inclusive upper bound of the warning bucket.
const warningWindowDays = 30

// Status is the derived display state for a product. DaysRemaining is nil
// when no expiry date is set.
type Status struct {
	DaysRemaining *int     `json:"days_remaining"`
	Severity      Severity `json:"severity"`
	Label         string   `json:"label"`
}

// ComputeStatus derives the display status from a product's expiry and opened
// dates (canonical YYYY-MM-DD strings, "" = unset). Day math uses calendar-day
// granularity: the time of day is discarded on both sides, so a product
// expiring today reports zero days remaining. The caller injects now, which
// keeps the derivation deterministic under test.
func ComputeStatus(expiryDate, openedDate string, now time.Time) Status {
	opened := openedDate != ""

	expiry, err := time.ParseInLocation(dateLayout, expiryDate, now.Location())
	if expiryDate == "" || err != nil {
		return Status{
			DaysRemaining: nil,
			Severity:      SeverityNeutral,
			Label:         withOpenedMarker("no expiry set", opened),
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	// Both sides sit at midnight; Round absorbs the odd DST hour.
	days := int(math.Round(expiry.Sub(today).Hours() / 24))

	var severity Severity
	var label string
	switch {
	case days < 0:
		severity = SeverityExpired
		label = fmt.Sprintf("expired %s ago", pluralDays(-days))
	case days == 0:
		severity = SeverityWarning
		label = "expires today"
	case days <= warningWindowDays:
		severity = SeverityWarning
		label = fmt.Sprintf("expires in %s", pluralDays(days))
	default:
		severity = SeverityOK
		label = fmt.Sprintf("expires in %s", pluralDays(days))
	}

	return Status{
		DaysRemaining: &days,
		Severity:      severity,
		Label:         withOpenedMarker(label, opened),
	}
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func withOpenedMarker(label string, opened bool) string {
	if opened {
		return label + " (opened)"
	}
	return label
}
