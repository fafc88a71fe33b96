package core

import (
	"fmt"
	"strings"
	"time"
)

// isoLayout is ISO-8601 with offset and second precision, the format the
// original snapshot files used (e.g. "2026-01-30T22:30:00-03:00").
const isoLayout = "2006-01-02T15:04:05-07:00"

// ISOTime marshals as an ISO-8601 string with second precision.
type ISOTime struct {
	time.Time
}

func (t ISOTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(isoLayout) + `"`), nil
}

func (t *ISOTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := time.Parse(isoLayout, s)
	if err != nil {
		// Tolerate fractional seconds from older files.
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

// NowISO formats the current time in loc as an ISO-8601 string with second
// precision. Used for per-source updated_at stamps.
func NowISO(loc *time.Location) string {
	return time.Now().In(loc).Format(isoLayout)
}

// LoadLocation resolves a timezone name, falling back to fixed UTC-3
// (Montevideo without DST data) when the name is empty or unknown.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = "America/Montevideo"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("UTC-3", -3*60*60)
	}
	return loc
}
