package helpers

import (
	"strconv"
	"strings"
	"time"
)

// ParseDecimal parses numbers written with either '.' or ',' as the decimal
// separator. "1.234,56" is read as 1234.56. Blank input yields (nil, nil).
func ParseDecimal(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseBRDate parses DD/MM/YYYY (optionally followed by HH:MM[:SS]) in loc.
func ParseBRDate(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	layouts := []string{"02/01/2006 15:04:05", "02/01/2006 15:04", "02/01/2006", "2/1/2006"}
	var err error
	for _, layout := range layouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// ParseTimestamp accepts RFC3339, "YYYY-MM-DDTHH:MM:SS" and "YYYY-MM-DD".
// The second return value is true when only a date was given.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, loc); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// DayBounds returns 00:00:00 and 23:59:59 of the day containing t, in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	return start, end
}

// NormalizeText lowercases and collapses internal whitespace.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ShortID returns the first 8 characters of an id for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
