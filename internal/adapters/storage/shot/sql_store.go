package shot

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"shotbuzz/internal/adapters/storage"
	domain "shotbuzz/internal/domain/shot"
)

const listAllQuery = `SELECT id, client_name, project_name, shot_name, status, workload,
	eta_date, assigned_to, estimated_id, package_id, in_date, created_at
	FROM shots ORDER BY created_at DESC`

// SQLStore implements Store over PostgreSQL or SQLite.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a shot store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// ListAll returns every shot, newest first.
// PRE: none
// POST: Rows are returned in store order; any scan error aborts the read
func (s *SQLStore) ListAll(ctx context.Context) ([]domain.Shot, error) {
	rows, err := s.db.QueryContext(ctx, listAllQuery)
	if err != nil {
		return nil, fmt.Errorf("query shots: %w", err)
	}
	defer rows.Close()

	var results []domain.Shot
	for rows.Next() {
		var (
			id, client, project, name, status string
			workload                          sql.NullInt64
			eta, inDate                       storage.DateValue
			assigned, estimated, pkg          sql.NullString
			created                           storage.TimestampValue
		)
		if err := rows.Scan(&id, &client, &project, &name, &status, &workload,
			&eta, &assigned, &estimated, &pkg, &inDate, &created); err != nil {
			return nil, fmt.Errorf("scan shot: %w", err)
		}
		entity := domain.New(id, client, project, name, status)
		entity.Workload = int(workload.Int64)
		entity.EtaDate = checkedDate(id, "eta_date", eta)
		entity.InDate = checkedDate(id, "in_date", inDate)
		entity.AssignedTo = assigned.String
		entity.EstimatedID = estimated.String
		entity.PackageID = pkg.String
		entity.CreatedAt = created.Time
		results = append(results, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shots: %w", err)
	}
	return results, nil
}

// checkedDate keeps malformed dates as raw text and warns about them.
func checkedDate(id, column string, v storage.DateValue) string {
	if !v.Valid {
		return ""
	}
	if _, err := time.Parse(storage.DateLayout, v.Text); err != nil {
		slog.Warn("bad_time_value", "table", "shots", "id", id, "column", column, "value", v.Text)
	}
	return v.Text
}

// Save inserts or replaces a shot. SQLite only.
// PRE: value has been validated
// POST: Row persisted; a zero CreatedAt is stamped with the current time
func (s *SQLStore) Save(ctx context.Context, value domain.Shot) error {
	created := value.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO shots (id, client_name, project_name, shot_name, status, workload,
		eta_date, assigned_to, estimated_id, package_id, in_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		value.ID, value.ClientName, value.ProjectName, value.ShotName, value.StatusRaw, value.Workload,
		nullable(value.EtaDate), value.AssignedTo, value.EstimatedID, value.PackageID,
		nullable(value.InDate), created.UTC().Format(storage.TimestampLayout))
	if err != nil {
		return fmt.Errorf("save shot %s: %w", value.ID, err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
