package storage

import (
	"fmt"
	"strings"
	"time"
)

// Canonical text layouts the stores normalise driver values to.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"

	// TimestampLayout is fixed width so text comparison matches time order.
	// Values must be formatted in UTC.
	TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// timestampLayouts covers what SQLite text columns and Go's time.String produce.
var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	DateLayout,
}

// DateValue scans a DATE column into YYYY-MM-DD text.
// PostgreSQL delivers time.Time, SQLite delivers text; unparseable text is kept raw.
type DateValue struct {
	Text  string
	Valid bool
}

// Scan implements sql.Scanner.
func (d *DateValue) Scan(src any) error {
	text, ok, err := scanText(src)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	d.Valid = ok
	if t, isTime := src.(time.Time); isTime {
		d.Text = t.Format(DateLayout)
		return nil
	}
	d.Text = normalizeDate(text)
	return nil
}

func normalizeDate(text string) string {
	if _, err := time.Parse(DateLayout, text); err == nil {
		return text
	}
	if t, err := ParseTimestamp(text); err == nil {
		return t.Format(DateLayout)
	}
	return text
}

// ClockValue scans a TIME column into text.
// time.Time values are formatted HH:MM:SS; text is passed through trimmed for the
// domain parser to judge.
type ClockValue struct {
	Text  string
	Valid bool
}

// Scan implements sql.Scanner.
func (c *ClockValue) Scan(src any) error {
	text, ok, err := scanText(src)
	if err != nil {
		return fmt.Errorf("scan time of day: %w", err)
	}
	c.Valid = ok
	if t, isTime := src.(time.Time); isTime {
		c.Text = t.Format(ClockLayout)
		return nil
	}
	c.Text = text
	return nil
}

// TimestampValue scans a TIMESTAMP column from either driver.
type TimestampValue struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (v *TimestampValue) Scan(src any) error {
	if t, ok := src.(time.Time); ok {
		v.Time, v.Valid = t, true
		return nil
	}
	text, ok, err := scanText(src)
	if err != nil {
		return fmt.Errorf("scan timestamp: %w", err)
	}
	if !ok || text == "" {
		v.Time, v.Valid = time.Time{}, false
		return nil
	}
	t, err := ParseTimestamp(text)
	if err != nil {
		return err
	}
	v.Time, v.Valid = t, true
	return nil
}

// ParseTimestamp parses the timestamp formats seen in stored rows.
func ParseTimestamp(value string) (time.Time, error) {
	if idx := strings.Index(value, " m="); idx != -1 {
		value = value[:idx]
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}

// scanText converts the driver value kinds used for text and temporal columns.
// ok is false for NULL.
func scanText(src any) (string, bool, error) {
	switch v := src.(type) {
	case nil:
		return "", false, nil
	case string:
		return strings.TrimSpace(v), true, nil
	case []byte:
		return strings.TrimSpace(string(v)), true, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), true, nil
	default:
		return "", false, fmt.Errorf("unsupported driver value %T", src)
	}
}
