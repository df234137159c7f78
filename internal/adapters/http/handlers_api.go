package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"shotbuzz/internal/application/projections"
	"shotbuzz/internal/application/viewstate"
	domainAttendance "shotbuzz/internal/domain/attendance"
	domainProject "shotbuzz/internal/domain/project"
	domainShot "shotbuzz/internal/domain/shot"
)

// apiWaitSlack lets a timed-out fetch report back before the handler gives up.
const apiWaitSlack = time.Second

type filterJSON struct {
	Client  string `json:"client"`
	Project string `json:"project"`
	Search  string `json:"q"`
}

type shotJSON struct {
	ID          string `json:"id"`
	ClientName  string `json:"client_name"`
	ProjectName string `json:"project_name"`
	ShotName    string `json:"shot_name"`
	Status      string `json:"status"`
	Workload    int    `json:"workload"`
	EtaDate     string `json:"eta_date"`
	AssignedTo  string `json:"assigned_to"`
	EstimatedID string `json:"estimated_id"`
	PackageID   string `json:"package_id"`
	InDate      string `json:"in_date"`
}

type shotsResponse struct {
	Phase    string     `json:"phase"`
	Filter   filterJSON `json:"filter"`
	Clients  []string   `json:"clients"`
	Projects []string   `json:"projects"`
	Total    int        `json:"total"`
	Shots    []shotJSON `json:"shots"`
}

type attendanceJSON struct {
	ID              string  `json:"id"`
	TeamMemberName  string  `json:"team_member_name"`
	Date            string  `json:"date"`
	Status          string  `json:"status"`
	CheckInTime     *string `json:"check_in_time"`
	CheckOutTime    *string `json:"check_out_time"`
	Notes           string  `json:"notes"`
	Duration        string  `json:"duration,omitempty"`
	DurationInvalid bool    `json:"duration_invalid,omitempty"`
}

type attendanceResponse struct {
	Phase   string                       `json:"phase"`
	Date    string                       `json:"date"`
	Counts  projections.AttendanceCounts `json:"counts"`
	Records []attendanceJSON             `json:"records"`
}

type dashboardResponse struct {
	Projects []domainProject.Project     `json:"projects"`
	Counts   projections.DashboardCounts `json:"counts"`
}

func toShotJSON(s domainShot.Shot) shotJSON {
	return shotJSON{
		ID:          s.ID,
		ClientName:  s.ClientName,
		ProjectName: s.ProjectName,
		ShotName:    s.ShotName,
		Status:      s.StatusLabel(),
		Workload:    s.Workload,
		EtaDate:     s.EtaDate,
		AssignedTo:  s.AssignedTo,
		EstimatedID: s.EstimatedID,
		PackageID:   s.PackageID,
		InDate:      s.InDate,
	}
}

func clockJSON(c domainAttendance.ClockTime) *string {
	if !c.IsSet() {
		return nil
	}
	s := c.String()
	return &s
}

func toAttendanceJSON(row projections.AttendanceRow) attendanceJSON {
	rec := row.Record
	out := attendanceJSON{
		ID:             rec.ID,
		TeamMemberName: rec.TeamMemberName,
		Date:           rec.Date,
		Status:         rec.StatusLabel(),
		CheckInTime:    clockJSON(rec.CheckIn),
		CheckOutTime:   clockJSON(rec.CheckOut),
		Notes:          rec.Notes,
	}
	switch {
	case row.InvalidDuration:
		out.DurationInvalid = true
	case row.HasDuration:
		out.Duration = row.Worked.String()
	}
	return out
}

// fetchOnce runs a single activation of a page outside any workspace and waits for it.
// PRE: fetch is non-nil
// POST: Returns the state at return time; ready is false if ctx ended first
func fetchOnce[T any](ctx, base context.Context, name string, fetch viewstate.FetchFunc[T], opts viewstate.Options) (viewstate.State[T], bool) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	page := viewstate.NewPage(base, name, fetch, opts)
	page.Activate()
	defer page.Deactivate()
	return page.Wait(ctx, opts.Timeout+apiWaitSlack)
}

// handleAPIShots handles GET /api/shots?client=&project=&q=. One-shot shots view-state.
func (a *app) handleAPIShots(w http.ResponseWriter, r *http.Request) {
	state, ready := fetchOnce(r.Context(), a.base, "shots", a.loaders.Shots, a.loaders.Options)
	if !ready {
		a.notReady(w, r, state.Phase)
		return
	}
	q := r.URL.Query()
	result := projections.QueryShotsView(projections.ShotsViewQuery{Filter: projections.ShotFilter{
		Client:  q.Get("client"),
		Project: q.Get("project"),
		Search:  q.Get("q"),
	}}, state.Records)

	resp := shotsResponse{
		Phase:    state.Phase.String(),
		Filter:   filterJSON{Client: result.Filter.Client, Project: result.Filter.Project, Search: result.Filter.Search},
		Clients:  result.Clients,
		Projects: result.Projects,
		Total:    result.Total,
		Shots:    make([]shotJSON, 0, len(result.Shots)),
	}
	for _, s := range result.Shots {
		resp.Shots = append(resp.Shots, toShotJSON(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAPIAttendance handles GET /api/attendance?date=YYYY-MM-DD. One-shot attendance view-state.
// A missing or invalid date selects today.
func (a *app) handleAPIAttendance(w http.ResponseWriter, r *http.Request) {
	state, ready := fetchOnce(r.Context(), a.base, "attendance", a.loaders.Attendance, a.loaders.Options)
	if !ready {
		a.notReady(w, r, state.Phase)
		return
	}
	date := projections.SelectDate(a.loaders.Today(), r.URL.Query().Get("date"))
	result := projections.QueryAttendanceView(projections.AttendanceViewQuery{Date: date}, state.Records)

	resp := attendanceResponse{
		Phase:   state.Phase.String(),
		Date:    result.Date,
		Counts:  result.Counts,
		Records: make([]attendanceJSON, 0, len(result.Rows)),
	}
	for _, row := range result.Rows {
		resp.Records = append(resp.Records, toAttendanceJSON(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAPIDashboard handles GET /api/dashboard. The project cards and header counts.
func (a *app) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	result := projections.QueryDashboard(projections.DashboardDeps{Projects: a.projects})
	projects := result.Projects
	if projects == nil {
		projects = []domainProject.Project{}
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Projects: projects, Counts: result.Counts})
}

// notReady answers an API request whose fetch did not settle in time.
func (a *app) notReady(w http.ResponseWriter, r *http.Request, phase viewstate.Phase) {
	if r.Context().Err() != nil {
		return
	}
	writeJSON(w, http.StatusGatewayTimeout, map[string]string{"phase": phase.String()})
}

// handleHealthz handles GET /healthz. Database liveness.
func (a *app) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.db.PingContext(ctx); err != nil {
			slog.Warn("healthz_failed", "error", err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Perf snapshot defaults.
const (
	defaultPerfWindow = 15 * time.Minute
	defaultPerfTopN   = 10
)

// handlePerf handles GET /debug/perf?since=15m&top=10. The perf ring buffer snapshot.
func (a *app) handlePerf(w http.ResponseWriter, r *http.Request) {
	if a.collector == nil {
		http.Error(w, "perf collector disabled", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	window := defaultPerfWindow
	if v := q.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "since must be a positive duration", http.StatusBadRequest)
			return
		}
		window = d
	}
	topN := defaultPerfTopN
	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "top must be a positive integer", http.StatusBadRequest)
			return
		}
		topN = n
	}
	writeJSON(w, http.StatusOK, a.collector.Snapshot(time.Now().Add(-window), topN))
}
