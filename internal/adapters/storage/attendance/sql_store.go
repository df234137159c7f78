package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"shotbuzz/internal/adapters/storage"
	domain "shotbuzz/internal/domain/attendance"
)

const listAllQuery = `SELECT id, team_member_name, date, status, check_in_time, check_out_time, notes
	FROM attendance ORDER BY date DESC, team_member_name ASC`

// SQLStore implements Store over PostgreSQL or SQLite.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates an attendance store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// ListAll returns every attendance record in display order.
// PRE: none
// POST: Malformed times are treated as unset and logged; scan errors abort the read
func (s *SQLStore) ListAll(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, listAllQuery)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var results []domain.Record
	for rows.Next() {
		var (
			rec               domain.Record
			date              storage.DateValue
			checkIn, checkOut storage.ClockValue
			notes             sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.TeamMemberName, &date, &rec.StatusRaw,
			&checkIn, &checkOut, &notes); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.Status = domain.ParseStatus(rec.StatusRaw)
		rec.Date = date.Text
		if _, err := time.Parse(storage.DateLayout, rec.Date); err != nil {
			slog.Warn("bad_time_value", "table", "attendance", "id", rec.ID, "column", "date", "value", rec.Date)
		}
		rec.CheckIn = clock(rec.ID, "check_in_time", checkIn)
		rec.CheckOut = clock(rec.ID, "check_out_time", checkOut)
		rec.Notes = notes.String
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return results, nil
}

// clock parses a stored time of day, treating malformed values as unset.
func clock(id, column string, v storage.ClockValue) domain.ClockTime {
	if !v.Valid {
		return domain.ClockTime{}
	}
	c, err := domain.ParseClockTime(v.Text)
	if err != nil {
		slog.Warn("bad_time_value", "table", "attendance", "id", id, "column", column, "value", v.Text)
		return domain.ClockTime{}
	}
	return c
}

// Save inserts or replaces an attendance record. SQLite only.
// PRE: value has been validated
// POST: Row persisted with unset times and empty notes stored as NULL
func (s *SQLStore) Save(ctx context.Context, value domain.Record) error {
	status := value.StatusRaw
	if status == "" {
		status = string(value.Status)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO attendance (id, team_member_name, date, status, check_in_time, check_out_time, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		value.ID, value.TeamMemberName, value.Date, status,
		nullable(value.CheckIn.String()), nullable(value.CheckOut.String()), nullable(value.Notes),
		time.Now().UTC().Format(storage.TimestampLayout))
	if err != nil {
		return fmt.Errorf("save attendance %s: %w", value.ID, err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
