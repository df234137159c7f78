package projections

import (
	"errors"
	"time"

	domainAttendance "shotbuzz/internal/domain/attendance"
)

// AttendanceCounts tallies the filtered records by status.
// INVARIANT: the five counts sum to the number of filtered records
type AttendanceCounts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Remote  int `json:"remote"`
	OnLeave int `json:"on_leave"`
	Unknown int `json:"unknown"`
}

// Total returns the sum of all counts.
func (c AttendanceCounts) Total() int {
	return c.Present + c.Absent + c.Remote + c.OnLeave + c.Unknown
}

func (c *AttendanceCounts) add(s domainAttendance.Status) {
	switch s {
	case domainAttendance.StatusPresent:
		c.Present++
	case domainAttendance.StatusAbsent:
		c.Absent++
	case domainAttendance.StatusRemote:
		c.Remote++
	case domainAttendance.StatusOnLeave:
		c.OnLeave++
	default:
		c.Unknown++
	}
}

// AttendanceRow is one record with its derived duration.
type AttendanceRow struct {
	Record domainAttendance.Record
	// Worked is set when HasDuration is true and the duration is not negative.
	Worked      domainAttendance.WorkedTime
	HasDuration bool
	// InvalidDuration flags a check-out earlier than check-in.
	InvalidDuration bool
}

// AttendanceViewQuery carries query parameters.
type AttendanceViewQuery struct {
	Date string // YYYY-MM-DD
}

// AttendanceViewResult carries the derived attendance page state.
type AttendanceViewResult struct {
	Date   string
	Rows   []AttendanceRow
	Counts AttendanceCounts
}

// Empty reports whether no records fall on the selected date.
func (r AttendanceViewResult) Empty() bool {
	return len(r.Rows) == 0
}

// QueryAttendanceView derives the attendance page for one date.
// PRE: query.Date is YYYY-MM-DD
// POST: Rows hold exactly the records whose date equals query.Date, in raw order
func QueryAttendanceView(query AttendanceViewQuery, raw []domainAttendance.Record) AttendanceViewResult {
	result := AttendanceViewResult{Date: query.Date, Rows: []AttendanceRow{}}
	for _, rec := range raw {
		if rec.Date != query.Date {
			continue
		}
		result.Counts.add(rec.Status)
		result.Rows = append(result.Rows, deriveRow(rec))
	}
	return result
}

func deriveRow(rec domainAttendance.Record) AttendanceRow {
	row := AttendanceRow{Record: rec}
	worked, err := rec.Worked()
	switch {
	case err == nil:
		row.Worked = worked
		row.HasDuration = true
	case errors.Is(err, domainAttendance.ErrNegativeDuration):
		row.HasDuration = true
		row.InvalidDuration = true
	}
	return row
}

// Today returns the default attendance date in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(domainAttendance.DateLayout)
}

// SelectDate returns raw when it is a valid YYYY-MM-DD date, otherwise current.
func SelectDate(current, raw string) string {
	if _, err := time.Parse(domainAttendance.DateLayout, raw); err != nil {
		return current
	}
	return raw
}
