package attendance

import (
	"context"

	domain "shotbuzz/internal/domain/attendance"
)

// Store reads attendance records from the record store.
type Store interface {
	// ListAll returns every record ordered by date descending, then team member name.
	ListAll(ctx context.Context) ([]domain.Record, error)
}

// Writer inserts attendance records. Only the local development store supports it.
type Writer interface {
	Save(ctx context.Context, value domain.Record) error
}
