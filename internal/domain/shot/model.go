package shot

import (
	"errors"
	"time"

	"shotbuzz/internal/domain/workstatus"
)

// DateLayout is the canonical calendar date format for ETA and in dates.
const DateLayout = "2006-01-02"

// Shot is one unit of VFX work as stored by the record store.
type Shot struct {
	ID          string
	ClientName  string
	ProjectName string
	ShotName    string
	Status      workstatus.Status
	StatusRaw   string
	Workload    int    // percent complete, not clamped
	EtaDate     string // YYYY-MM-DD, empty if unset
	AssignedTo  string
	EstimatedID string
	PackageID   string
	InDate      string // YYYY-MM-DD, empty if unset
	CreatedAt   time.Time
}

// New builds a Shot with Status classified from raw.
func New(id, client, project, name, rawStatus string) Shot {
	return Shot{
		ID:          id,
		ClientName:  client,
		ProjectName: project,
		ShotName:    name,
		Status:      workstatus.Parse(rawStatus),
		StatusRaw:   rawStatus,
	}
}

// StatusLabel returns the badge text, keeping the raw value for unknown statuses.
func (s Shot) StatusLabel() string {
	return workstatus.Label(s.Status, s.StatusRaw)
}

// Validate checks the fields needed to seed a shot.
// PRE: Shot struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Workload and Status are not validated; the record store owns them
func (s *Shot) Validate() error {
	if s.ID == "" {
		return errors.New("shot id cannot be empty")
	}
	if s.ShotName == "" {
		return errors.New("shot name cannot be empty")
	}
	for _, d := range []string{s.EtaDate, s.InDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, d); err != nil {
			return errors.New("shot dates must be YYYY-MM-DD")
		}
	}
	return nil
}
