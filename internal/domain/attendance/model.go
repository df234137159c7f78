package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical attendance date format.
const DateLayout = "2006-01-02"

// Status is a team member's attendance state for a day.
type Status string

// Known attendance statuses. Values match the labels stored by the record store.
const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusOnLeave Status = "On Leave"
	StatusRemote  Status = "Remote"
	StatusUnknown Status = "Unknown"
)

var knownStatuses = []Status{StatusPresent, StatusAbsent, StatusOnLeave, StatusRemote}

// Domain errors
var (
	ErrNegativeDuration = errors.New("check-out time is before check-in time")
	ErrMissingTimes     = errors.New("check-in and check-out times are both required")
)

// ParseStatus classifies a raw status string by exact match.
func ParseStatus(raw string) Status {
	for _, s := range knownStatuses {
		if raw == string(s) {
			return s
		}
	}
	return StatusUnknown
}

// Badge describes how a status is rendered.
type Badge struct {
	Icon      string // icon name; empty renders no icon
	From      string
	To        string
	TextColor string
}

var badges = map[Status]Badge{
	StatusPresent: {Icon: "check-circle", From: "#16A34A", To: "#22C55E", TextColor: "#0B0F17"},
	StatusAbsent:  {Icon: "x-circle", From: "#DC2626", To: "#EF4444", TextColor: "#FFFFFF"},
	StatusRemote:  {Icon: "wifi", From: "#7DF9FF", To: "#00E5FF", TextColor: "#0B0F17"},
	StatusOnLeave: {Icon: "calendar", From: "#D97706", To: "#F59E0B", TextColor: "#0B0F17"},
}

// FallbackBadge is the gray badge used for unknown statuses.
var FallbackBadge = Badge{From: "#6B7280", To: "#9CA3AF", TextColor: "#FFFFFF"}

// Badge returns the rendering for s; unknown statuses get FallbackBadge.
func (s Status) Badge() Badge {
	if b, ok := badges[s]; ok {
		return b
	}
	return FallbackBadge
}

// ClockTime is a time of day. The zero value means "not recorded".
type ClockTime struct {
	sinceMidnight time.Duration
	valid         bool
}

var clockLayouts = []string{"15:04:05.999999999", "15:04:05", "15:04"}

// ParseClockTime parses HH:MM or HH:MM:SS. An empty string yields an unset ClockTime.
// PRE: none
// POST: Returns an unset value and nil for "", an error for unparseable input
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ClockTime{}, nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockAt(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return ClockTime{}, fmt.Errorf("unsupported time of day: %q", s)
}

// ClockAt builds a ClockTime from its components.
func ClockAt(hour, minute, second int) ClockTime {
	return ClockTime{
		sinceMidnight: time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second,
		valid:         true,
	}
}

// IsSet reports whether the time was recorded.
func (c ClockTime) IsSet() bool {
	return c.valid
}

// String returns HH:MM:SS, or "" when unset.
func (c ClockTime) String() string {
	if !c.valid {
		return ""
	}
	return c.on(referenceDay).Format("15:04:05")
}

// Display returns the 12-hour form shown on the attendance page, "-" when unset.
func (c ClockTime) Display() string {
	if !c.valid {
		return "-"
	}
	return c.on(referenceDay).Format("03:04 PM")
}

// referenceDay anchors times of day so they compare as the same day.
var referenceDay = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func (c ClockTime) on(day time.Time) time.Time {
	return day.Add(c.sinceMidnight)
}

// Record is one attendance row.
type Record struct {
	ID             string
	TeamMemberName string
	Date           string // YYYY-MM-DD
	Status         Status
	StatusRaw      string
	CheckIn        ClockTime
	CheckOut       ClockTime
	Notes          string
}

// StatusLabel returns the badge text, keeping the raw value for unknown statuses.
func (r Record) StatusLabel() string {
	if r.Status != StatusUnknown {
		return string(r.Status)
	}
	if r.StatusRaw == "" {
		return string(StatusUnknown)
	}
	return r.StatusRaw
}

// Validate checks the fields needed to seed a record.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (r *Record) Validate() error {
	if strings.TrimSpace(r.TeamMemberName) == "" {
		return errors.New("attendance must name a team member")
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return errors.New("attendance date must be YYYY-MM-DD")
	}
	return nil
}

// WorkedTime is an elapsed duration split into whole hours and remainder minutes.
type WorkedTime struct {
	Hours   int
	Minutes int
}

// String renders the duration as "8h 30m".
func (w WorkedTime) String() string {
	return fmt.Sprintf("%dh %dm", w.Hours, w.Minutes)
}

// HasDuration reports whether both check-in and check-out were recorded.
func (r Record) HasDuration() bool {
	return r.CheckIn.IsSet() && r.CheckOut.IsSet()
}

// Worked computes check-out minus check-in in whole minutes.
// Seconds count toward the difference, which is then floored to the minute.
// PRE: none
// POST: Returns ErrMissingTimes unless both times are set,
// ErrNegativeDuration when check-out precedes check-in
// INVARIANT: Record is not mutated; repeated calls return the same value
func (r Record) Worked() (WorkedTime, error) {
	if !r.HasDuration() {
		return WorkedTime{}, ErrMissingTimes
	}
	diff := r.CheckOut.sinceMidnight - r.CheckIn.sinceMidnight
	if diff < 0 {
		return WorkedTime{}, ErrNegativeDuration
	}
	total := int(diff / time.Minute)
	return WorkedTime{Hours: total / 60, Minutes: total % 60}, nil
}
