package shot

import (
	"context"

	domain "shotbuzz/internal/domain/shot"
)

// Store reads shots from the record store.
type Store interface {
	// ListAll returns every shot ordered by created_at descending.
	ListAll(ctx context.Context) ([]domain.Shot, error)
}

// Writer inserts shots. Only the local development store supports it.
type Writer interface {
	Save(ctx context.Context, value domain.Shot) error
}
