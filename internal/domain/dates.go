package domain

import (
	"fmt"
	"strings"
	"time"
)

// dateLayout is the canonical calendar-date form used everywhere a date is
// stored or compared.
const dateLayout = "2006-01-02"

// CanonicalDate normalizes a heterogeneous date value to its canonical
// YYYY-MM-DD form. Nil, zero and empty inputs yield "" without error; an
// unparseable non-empty value is reported as an error so callers can surface
// it instead of persisting garbage. The function is idempotent on its own
// output.
func CanonicalDate(v any) (string, error) {
	switch d := v.(type) {
	case nil:
		return "", nil
	case time.Time:
		if d.IsZero() {
			return "", nil
		}
		return d.Format(dateLayout), nil
	case *time.Time:
		if d == nil || d.IsZero() {
			return "", nil
		}
		return d.Format(dateLayout), nil
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return "", nil
		}
		if t, err := time.Parse(dateLayout, s); err == nil {
			return t.Format(dateLayout), nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Format(dateLayout), nil
		}
		return "", fmt.Errorf("unparseable date %q", s)
	default:
		return "", fmt.Errorf("unsupported date value of type %T", v)
	}
}
