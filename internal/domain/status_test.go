package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// frozenNow keeps every status derivation deterministic. The odd time of day
// is deliberate: calendar-day math must discard it.
var frozenNow = time.Date(2025, 6, 15, 17, 42, 13, 0, time.UTC)

func day(offset int) string {
	return frozenNow.AddDate(0, 0, offset).Format("2006-01-02")
}

func TestComputeStatusBuckets(t *testing.T) {
	tests := []struct {
		name     string
		expiry   string
		opened   string
		days     *int
		severity Severity
		label    string
	}{
		{
			name:     "expires today is a warning",
			expiry:   day(0),
			days:     intPtr(0),
			severity: SeverityWarning,
			label:    "expires today",
		},
		{
			name:     "one day past expiry",
			expiry:   day(-1),
			days:     intPtr(-1),
			severity: SeverityExpired,
			label:    "expired 1 day ago",
		},
		{
			name:     "last day of the warning window",
			expiry:   day(30),
			days:     intPtr(30),
			severity: SeverityWarning,
			label:    "expires in 30 days",
		},
		{
			name:     "just past the warning window",
			expiry:   day(31),
			days:     intPtr(31),
			severity: SeverityOK,
			label:    "expires in 31 days",
		},
		{
			name:     "no expiry set",
			expiry:   "",
			days:     nil,
			severity: SeverityNeutral,
			label:    "no expiry set",
		},
		{
			name:     "no expiry stays neutral even when opened",
			expiry:   "",
			opened:   day(-10),
			days:     nil,
			severity: SeverityNeutral,
			label:    "no expiry set (opened)",
		},
		{
			name:     "opened marker on expired product",
			expiry:   day(-3),
			opened:   day(-40),
			days:     intPtr(-3),
			severity: SeverityExpired,
			label:    "expired 3 days ago (opened)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatus(tt.expiry, tt.opened, frozenNow)

			if got.Severity != tt.severity {
				t.Errorf("severity = %q, want %q", got.Severity, tt.severity)
			}
			if got.Label != tt.label {
				t.Errorf("label = %q, want %q", got.Label, tt.label)
			}
			if tt.days == nil {
				if got.DaysRemaining != nil {
					t.Errorf("days remaining = %d, want nil", *got.DaysRemaining)
				}
			} else if got.DaysRemaining == nil || *got.DaysRemaining != *tt.days {
				t.Errorf("days remaining = %v, want %d", got.DaysRemaining, *tt.days)
			}
		})
	}
}

func TestComputeStatusDiscardsTimeOfDay(t *testing.T) {
	// The same calendar day must produce the same status regardless of when
	// during the day the calculation runs.
	morning := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)
	night := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)

	a := ComputeStatus("2025-06-20", "", morning)
	b := ComputeStatus("2025-06-20", "", night)

	if *a.DaysRemaining != 5 || *b.DaysRemaining != 5 {
		t.Errorf("days remaining = %d / %d, want 5 / 5", *a.DaysRemaining, *b.DaysRemaining)
	}
}

func TestProperty_StatusBucketsPartitionTheCalendar(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("offsets beyond the warning window are ok", prop.ForAll(
		func(extra int) bool {
			offset := 31 + extra%3000
			st := ComputeStatus(day(offset), "", frozenNow)
			return st.Severity == SeverityOK && *st.DaysRemaining == offset
		},
		gen.IntRange(0, 3000),
	))

	properties.Property("past dates are always expired", prop.ForAll(
		func(back int) bool {
			st := ComputeStatus(day(-back), "", frozenNow)
			return st.Severity == SeverityExpired && *st.DaysRemaining == -back
		},
		gen.IntRange(1, 3000),
	))

	properties.Property("opened marker never changes the bucket", prop.ForAll(
		func(offset int) bool {
			plain := ComputeStatus(day(offset), "", frozenNow)
			opened := ComputeStatus(day(offset), day(-5), frozenNow)
			return plain.Severity == opened.Severity &&
				strings.HasSuffix(opened.Label, "(opened)")
		},
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func intPtr(n int) *int { return &n }
