package project

import (
	"errors"
	"strings"

	"shotbuzz/internal/domain/workstatus"
)

// Project is a dashboard card. Projects have no identity beyond list position.
type Project struct {
	ClientName  string            `yaml:"client_name" json:"client_name"`
	Project     string            `yaml:"project" json:"project"`
	Status      workstatus.Status `yaml:"-" json:"-"`
	StatusRaw   string            `yaml:"status" json:"status"`
	Workload    int               `yaml:"workload" json:"workload"`
	ETA         string            `yaml:"eta" json:"eta"` // free text, e.g. "5 Days"
	Assigned    string            `yaml:"assigned" json:"assigned"`
	EstimatedID string            `yaml:"estimated_id" json:"estimated_id"`
	PackageID   string            `yaml:"package_id" json:"package_id"`
}

// Classify sets Status from StatusRaw.
// POST: Status is a known status or workstatus.Unknown
func (p *Project) Classify() {
	p.Status = workstatus.Parse(p.StatusRaw)
}

// StatusLabel returns the badge text for the project.
func (p Project) StatusLabel() string {
	return workstatus.Label(p.Status, p.StatusRaw)
}

// Validate checks that a project loaded from a seed file is usable.
// PRE: Project struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: ClientName must not be empty; workload is not range checked
func (p *Project) Validate() error {
	if strings.TrimSpace(p.ClientName) == "" {
		return errors.New("project client name cannot be empty")
	}
	return nil
}

// DefaultSeed returns the built-in project list.
// POST: Returns a fresh slice; callers may modify it
func DefaultSeed() []Project {
	seed := []Project{
		{ClientName: "LLP", Project: "BETA", StatusRaw: "Active", Workload: 60, ETA: "5 Days", Assigned: "PAINT", EstimatedID: "EST-2401", PackageID: "PKG-MS-047"},
		{ClientName: "RUL", Project: "DKT", StatusRaw: "In Progress", Workload: 90, ETA: "12 Days", Assigned: "ROTO", EstimatedID: "EST-2402", PackageID: "PKG-NF-183"},
		{ClientName: "TRX", Project: "HRG", StatusRaw: "Review", Workload: 92, ETA: "2 Days", Assigned: "ROTO", EstimatedID: "EST-2403", PackageID: "PKG-WB-291"},
		{ClientName: "GOF", Project: "FRM", StatusRaw: "Active", Workload: 45, ETA: "8 Days", Assigned: "COMP", EstimatedID: "EST-2404", PackageID: "PKG-UP-156"},
		{ClientName: "LLP", Project: "FIRE", StatusRaw: "Completed", Workload: 10, ETA: "17days", Assigned: "PAINT", EstimatedID: "EST-2405", PackageID: "PKG-SP-092"},
		{ClientName: "RSE", Project: "GHW", StatusRaw: "In Progress", Workload: 45, ETA: "18 Days", Assigned: "PAINT", EstimatedID: "EST-2406", PackageID: "PKG-AP-321"},
	}
	for i := range seed {
		seed[i].Classify()
	}
	return seed
}
