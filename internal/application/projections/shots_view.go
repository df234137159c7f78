package projections

import (
	"strings"

	"golang.org/x/text/cases"

	domainShot "shotbuzz/internal/domain/shot"
)

// AllOption is the filter value that disables a client or project filter.
const AllOption = "All"

// ShotFilter is the shots page selection.
type ShotFilter struct {
	Client  string
	Project string
	Search  string
}

// DefaultShotFilter is the selection a freshly mounted shots page starts with.
func DefaultShotFilter() ShotFilter {
	return ShotFilter{Client: AllOption, Project: AllOption}
}

// Normalize maps empty client/project values to AllOption.
func (f ShotFilter) Normalize() ShotFilter {
	if f.Client == "" {
		f.Client = AllOption
	}
	if f.Project == "" {
		f.Project = AllOption
	}
	return f
}

// ShotsViewQuery carries query parameters.
type ShotsViewQuery struct {
	Filter ShotFilter
}

// ShotsViewResult carries the derived shots page state.
type ShotsViewResult struct {
	Filter   ShotFilter
	Shots    []domainShot.Shot
	Clients  []string // distinct client names across the full set
	Projects []string // distinct project names across the full set
	Total    int      // size of the unfiltered set
}

// Empty reports whether the filtered sequence has no shots.
func (r ShotsViewResult) Empty() bool {
	return len(r.Shots) == 0
}

// QueryShotsView derives the shots page from the raw set.
// PRE: raw is the fetched set in store order
// POST: Shots is an order-preserving subset of raw matching every active filter;
// option lists are computed from raw, not from the filtered set
func QueryShotsView(query ShotsViewQuery, raw []domainShot.Shot) ShotsViewResult {
	f := query.Filter.Normalize()
	return ShotsViewResult{
		Filter:   f,
		Shots:    FilterShots(raw, f),
		Clients:  DistinctClients(raw),
		Projects: DistinctProjects(raw),
		Total:    len(raw),
	}
}

// FilterShots applies client, project and search filters as a conjunction.
// INVARIANT: relative order of raw is preserved
func FilterShots(raw []domainShot.Shot, f ShotFilter) []domainShot.Shot {
	f = f.Normalize()
	needle := ""
	folder := cases.Fold()
	if f.Search != "" {
		needle = folder.String(f.Search)
	}

	out := make([]domainShot.Shot, 0, len(raw))
	for _, s := range raw {
		if f.Client != AllOption && s.ClientName != f.Client {
			continue
		}
		if f.Project != AllOption && s.ProjectName != f.Project {
			continue
		}
		if needle != "" &&
			!strings.Contains(folder.String(s.ShotName), needle) &&
			!strings.Contains(folder.String(s.AssignedTo), needle) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// DistinctClients returns unique client names in order of first appearance.
func DistinctClients(raw []domainShot.Shot) []string {
	return distinct(raw, func(s domainShot.Shot) string { return s.ClientName })
}

// DistinctProjects returns unique project names in order of first appearance.
func DistinctProjects(raw []domainShot.Shot) []string {
	return distinct(raw, func(s domainShot.Shot) string { return s.ProjectName })
}

func distinct(raw []domainShot.Shot, key func(domainShot.Shot) string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := []string{}
	for _, s := range raw {
		k := key(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
