package shell

import (
	"context"
	"sync"
	"time"

	"shotbuzz/internal/application/projections"
	"shotbuzz/internal/application/viewstate"
	domainAttendance "shotbuzz/internal/domain/attendance"
	domainShot "shotbuzz/internal/domain/shot"
)

// Loaders supplies the record reads and fetch options for a workspace's pages.
type Loaders struct {
	Shots      viewstate.FetchFunc[domainShot.Shot]
	Attendance viewstate.FetchFunc[domainAttendance.Record]
	Options    viewstate.Options
	// Now and Location pick the default attendance date. Nil means time.Now and time.Local.
	Now      func() time.Time
	Location *time.Location
}

// Today returns the default attendance date.
func (l Loaders) Today() string {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	loc := l.Location
	if loc == nil {
		loc = time.Local
	}
	return projections.Today(now(), loc)
}

// Workspace is one viewer's navigation state: the selected page, each page's
// loader and each page's filter selection.
type Workspace struct {
	loaders Loaders

	mu         sync.Mutex
	selected   PageID
	shots      *viewstate.Page[domainShot.Shot]
	attendance *viewstate.Page[domainAttendance.Record]
	filter     projections.ShotFilter
	date       string
}

// NewWorkspace creates a workspace showing the dashboard.
// PRE: base outlives the workspace's fetches; loaders has both fetch functions
// POST: No fetch has been issued
func NewWorkspace(base context.Context, loaders Loaders) *Workspace {
	return &Workspace{
		loaders:    loaders,
		selected:   PageTask,
		shots:      viewstate.NewPage(base, "shots", loaders.Shots, loaders.Options),
		attendance: viewstate.NewPage(base, "attendance", loaders.Attendance, loaders.Options),
		filter:     projections.DefaultShotFilter(),
		date:       loaders.Today(),
	}
}

// Navigate selects a page and remounts it.
// POST: The previously mounted page's fetch is cancelled; a data page issues a new
// fetch and starts from its default selection
func (w *Workspace) Navigate(id PageID) PageID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.navigateLocked(id)
}

func (w *Workspace) navigateLocked(id PageID) PageID {
	w.shots.Deactivate()
	w.attendance.Deactivate()

	w.selected = id
	switch Mounted(id) {
	case PageShots:
		w.filter = projections.DefaultShotFilter()
		w.shots.Activate()
	case PageAttendance:
		w.date = w.loaders.Today()
		w.attendance.Activate()
	}
	return Mounted(id)
}

// Mount navigates to id only when a different page is mounted.
// A view URL opened directly, or after the workspace expired, mounts its page first.
func (w *Workspace) Mount(id PageID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if Mounted(w.selected) != Mounted(id) {
		w.navigateLocked(id)
	}
}

// Selected returns the navigation target last chosen.
func (w *Workspace) Selected() PageID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

// SetShotFilter replaces the shots selection. It never re-fetches.
func (w *Workspace) SetShotFilter(f projections.ShotFilter) projections.ShotFilter {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filter = f.Normalize()
	return w.filter
}

// ShotFilter returns the shots selection.
func (w *Workspace) ShotFilter() projections.ShotFilter {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filter
}

// SelectDate sets the attendance date when raw is a valid YYYY-MM-DD date.
// POST: Returns the selection in effect; invalid input leaves it unchanged
func (w *Workspace) SelectDate(raw string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.date = projections.SelectDate(w.date, raw)
	return w.date
}

// Date returns the attendance date selection.
func (w *Workspace) Date() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.date
}

// Shots returns the shots page loader.
func (w *Workspace) Shots() *viewstate.Page[domainShot.Shot] {
	return w.shots
}

// Attendance returns the attendance page loader.
func (w *Workspace) Attendance() *viewstate.Page[domainAttendance.Record] {
	return w.attendance
}

// ShotsView waits up to d for the shots page and derives its view.
// POST: ready is false while the activation is still Loading
func (w *Workspace) ShotsView(ctx context.Context, d time.Duration) (result projections.ShotsViewResult, ready bool) {
	state, ready := w.shots.Wait(ctx, d)
	result = projections.QueryShotsView(projections.ShotsViewQuery{Filter: w.ShotFilter()}, state.Records)
	return result, ready
}

// AttendanceView waits up to d for the attendance page and derives its view.
// POST: ready is false while the activation is still Loading
func (w *Workspace) AttendanceView(ctx context.Context, d time.Duration) (result projections.AttendanceViewResult, ready bool) {
	state, ready := w.attendance.Wait(ctx, d)
	result = projections.QueryAttendanceView(projections.AttendanceViewQuery{Date: w.Date()}, state.Records)
	return result, ready
}

// Close cancels any in-flight fetch.
func (w *Workspace) Close() {
	w.shots.Deactivate()
	w.attendance.Deactivate()
}
