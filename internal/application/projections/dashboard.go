package projections

import (
	domainProject "shotbuzz/internal/domain/project"
	"shotbuzz/internal/domain/workstatus"
)

// DashboardCounts tallies the header badges.
type DashboardCounts struct {
	Active     int `json:"active"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// DashboardResult carries the dashboard view.
type DashboardResult struct {
	Projects []domainProject.Project
	Counts   DashboardCounts
}

// DashboardDeps holds dependencies for QueryDashboard.
type DashboardDeps struct {
	Projects ProjectSource
}

// QueryDashboard reads the current project list and counts it.
// PRE: deps.Projects is non-nil
// POST: Counts reflect the list as of this call; nothing is cached
func QueryDashboard(deps DashboardDeps) DashboardResult {
	projects := deps.Projects.Projects()
	return DashboardResult{
		Projects: projects,
		Counts:   CountProjects(projects),
	}
}

// CountProjects counts Active, In Progress and Completed projects.
// Review and unknown statuses are shown on cards but not counted.
func CountProjects(projects []domainProject.Project) DashboardCounts {
	var c DashboardCounts
	for _, p := range projects {
		switch p.Status {
		case workstatus.Active:
			c.Active++
		case workstatus.InProgress:
			c.InProgress++
		case workstatus.Completed:
			c.Completed++
		}
	}
	return c
}
