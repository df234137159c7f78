package shot

import (
	"context"
	"testing"
	"time"

	"shotbuzz/internal/adapters/storage"
	domain "shotbuzz/internal/domain/shot"
	"shotbuzz/internal/domain/workstatus"
)

func setupStore(t *testing.T) (*SQLStore, storage.SQLDB) {
	t.Helper()
	db, err := storage.Open(storage.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("init: %v", err)
	}
	return NewSQLStore(db), db
}

// TestSQLStore_ListAll_OrderedNewestFirst verifies created_at descending order.
func TestSQLStore_ListAll_OrderedNewestFirst(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	for i, name := range []string{"SH010", "SH020", "SH030"} {
		s := domain.New(name, "LLP", "BETA", name, "Active")
		s.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
	}

	got, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	want := []string{"SH030", "SH020", "SH010"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ShotName != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ShotName, want[i])
		}
	}
}

// TestSQLStore_ListAll_SubSecondOrder verifies rows created within the same second
// still come back newest first.
func TestSQLStore_ListAll_SubSecondOrder(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name         string
		older, newer time.Time
	}{
		{"whole vs half second", base, base.Add(500 * time.Millisecond)},
		{"short vs long fraction", base.Add(120 * time.Millisecond), base.Add(123 * time.Millisecond)},
		{"microseconds", base.Add(time.Microsecond), base.Add(10 * time.Microsecond)},
		{"non-UTC zone", base.In(time.FixedZone("NZDT", 13*3600)), base.Add(time.Nanosecond)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := setupStore(t)
			ctx := context.Background()
			for _, row := range []struct {
				id      string
				created time.Time
			}{{"OLD", tt.older}, {"NEW", tt.newer}} {
				s := domain.New(row.id, "LLP", "BETA", row.id, "Active")
				s.CreatedAt = row.created
				if err := store.Save(ctx, s); err != nil {
					t.Fatalf("Save(%s): %v", row.id, err)
				}
			}

			got, err := store.ListAll(ctx)
			if err != nil {
				t.Fatalf("ListAll: %v", err)
			}
			if len(got) != 2 || got[0].ID != "NEW" || got[1].ID != "OLD" {
				t.Fatalf("order = %v, want NEW then OLD", ids(got))
			}
			if !got[0].CreatedAt.Equal(tt.newer) {
				t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, tt.newer)
			}
		})
	}
}

func ids(shots []domain.Shot) []string {
	out := make([]string, len(shots))
	for i, s := range shots {
		out[i] = s.ID
	}
	return out
}

// TestSQLStore_ListAll_MapsColumns verifies optional columns and status classification.
func TestSQLStore_ListAll_MapsColumns(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	s := domain.New("s1", "RUL", "DKT", "DKT_0100", "On Hold")
	s.Workload = 140
	s.EtaDate = "2024-02-01"
	s.AssignedTo = "Priya"
	s.PackageID = "PKG-NF-183"
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	row := got[0]
	if row.Status != workstatus.Unknown || row.StatusLabel() != "On Hold" {
		t.Errorf("status = %q/%q, want Unknown/On Hold", row.Status, row.StatusLabel())
	}
	if row.Workload != 140 {
		t.Errorf("Workload = %d, want 140 (not clamped)", row.Workload)
	}
	if row.EtaDate != "2024-02-01" || row.InDate != "" {
		t.Errorf("dates = %q/%q", row.EtaDate, row.InDate)
	}
	if row.AssignedTo != "Priya" || row.EstimatedID != "" {
		t.Errorf("assigned/estimated = %q/%q", row.AssignedTo, row.EstimatedID)
	}
	if row.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped on save")
	}
}

// TestSQLStore_ListAll_Empty verifies an empty table yields no rows and no error.
func TestSQLStore_ListAll_Empty(t *testing.T) {
	store, _ := setupStore(t)
	got, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

// TestSQLStore_ListAll_MissingTable verifies query errors surface to the caller.
func TestSQLStore_ListAll_MissingTable(t *testing.T) {
	store, db := setupStore(t)
	if _, err := db.ExecContext(context.Background(), "DROP TABLE shots"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, err := store.ListAll(context.Background()); err == nil {
		t.Error("expected error when shots table is missing")
	}
}
