package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shotbuzz/internal/adapters/http/middleware"
	"shotbuzz/internal/adapters/http/perf"
	"shotbuzz/internal/application/projections"
	"shotbuzz/internal/application/shell"
	"shotbuzz/internal/application/viewstate"
	domainAttendance "shotbuzz/internal/domain/attendance"
	domainProject "shotbuzz/internal/domain/project"
	domainShot "shotbuzz/internal/domain/shot"
)

// Mock implementations for testing

type mockShotStore struct {
	shots []domainShot.Shot
	err   error
	block chan struct{} // when non-nil, ListAll waits for it or for ctx
	calls atomic.Int32

	mu        sync.Mutex
	cancelled int
}

// ListAll implements the shot store interface for testing.
// POST: Returns the configured shots or error; counts every call
func (m *mockShotStore) ListAll(ctx context.Context) ([]domainShot.Shot, error) {
	m.calls.Add(1)
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			m.mu.Lock()
			m.cancelled++
			m.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	return m.shots, m.err
}

func (m *mockShotStore) cancelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}

type mockAttendanceStore struct {
	records []domainAttendance.Record
	err     error
	calls   atomic.Int32
}

// ListAll implements the attendance store interface for testing.
// POST: Returns the configured records or error; counts every call
func (m *mockAttendanceStore) ListAll(ctx context.Context) ([]domainAttendance.Record, error) {
	m.calls.Add(1)
	return m.records, m.err
}

type mockProjectSource struct {
	projects []domainProject.Project
}

// Projects implements projections.ProjectSource for testing.
func (m *mockProjectSource) Projects() []domainProject.Project {
	return m.projects
}

type mockPinger struct {
	err error
}

// PingContext implements Pinger for testing.
func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}

// fixedNow is 10:00 UTC on 2024-01-15.
func fixedNow() time.Time {
	return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
}

// testWorkspaceCapacity bounds the workspace store in handler tests.
const testWorkspaceCapacity = 50

type testServer struct {
	handler    http.Handler
	shots      *mockShotStore
	attendance *mockAttendanceStore
	pinger     *mockPinger
	collector  *perf.Collector
	metrics    *perf.Metrics
	workspaces *shell.WorkspaceStore
}

// newTestServer builds the full middleware chain over mock stores.
func newTestServer(t *testing.T, shots *mockShotStore, att *mockAttendanceStore, loadWait time.Duration) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if shots == nil {
		shots = &mockShotStore{}
	}
	if att == nil {
		att = &mockAttendanceStore{}
	}
	collector := perf.NewCollector(100)
	metrics := perf.NewMetrics(collector)
	loaders := shell.Loaders{
		Shots:      shots.ListAll,
		Attendance: att.ListAll,
		Options:    viewstate.Options{Timeout: 5 * time.Second, Observer: metrics},
		Now:        fixedNow,
		Location:   time.UTC,
	}
	workspaces := shell.NewWorkspaceStore(func() *shell.Workspace {
		return shell.NewWorkspace(ctx, loaders)
	}, shell.StoreOptions{TTL: time.Hour, Capacity: testWorkspaceCapacity})
	pinger := &mockPinger{}

	handler := NewMux(Deps{
		Loaders:    loaders,
		Projects:   &mockProjectSource{projects: domainProject.DefaultSeed()},
		Workspaces: workspaces,
		Collector:  collector,
		Metrics:    metrics,
		DB:         pinger,
		Base:       ctx,
		Options: Options{
			LoadWait:  loadWait,
			CSRFKey:   make([]byte, 32),
			RateLimit: 1000,
		},
	})
	return &testServer{
		handler:    handler,
		shots:      shots,
		attendance: att,
		pinger:     pinger,
		collector:  collector,
		metrics:    metrics,
		workspaces: workspaces,
	}
}

// get issues a GET through the full chain, reusing the workspace cookie if set.
func (s *testServer) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// workspaceCookie extracts the workspace cookie set on a response.
func workspaceCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.WorkspaceCookieName {
			return c
		}
	}
	t.Fatal("no workspace cookie set")
	return nil
}

func sampleShots() []domainShot.Shot {
	mk := func(id, client, project, name, status, assigned string, workload int) domainShot.Shot {
		s := domainShot.New(id, client, project, name, status)
		s.AssignedTo = assigned
		s.Workload = workload
		s.EtaDate = "2024-03-05"
		s.InDate = "2024-01-02"
		return s
	}
	return []domainShot.Shot{
		mk("s1", "LLP", "BETA", "BETA_0010", "Active", "Priya", 60),
		mk("s2", "RUL", "DKT", "DKT_0020", "In Progress", "Marco", 90),
		mk("s3", "LLP", "FIRE", "FIRE_0030", "On Hold", "Aiko", 140),
	}
}

func record(t *testing.T, id, name, date string, status domainAttendance.Status, in, out, notes string) domainAttendance.Record {
	t.Helper()
	checkIn, err := domainAttendance.ParseClockTime(in)
	if err != nil {
		t.Fatalf("ParseClockTime(%q): %v", in, err)
	}
	checkOut, err := domainAttendance.ParseClockTime(out)
	if err != nil {
		t.Fatalf("ParseClockTime(%q): %v", out, err)
	}
	return domainAttendance.Record{
		ID: id, TeamMemberName: name, Date: date,
		Status: status, StatusRaw: string(status),
		CheckIn: checkIn, CheckOut: checkOut, Notes: notes,
	}
}

func assertContains(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func assertNotContains(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(body, u) {
			t.Errorf("body unexpectedly contains %q", u)
		}
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// --- Tests: dashboard and navigation ---

// TestDashboard_RendersProjectsAndCounts verifies the dashboard cards and header counts.
func TestDashboard_RendersProjectsAndCounts(t *testing.T) {
	srv := newTestServer(t, nil, nil, time.Second)
	rec := srv.get("/", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	assertContains(t, body,
		"OFX-Production Pipeline",
		`data-count="active">2<`,
		`data-count="in-progress">2<`,
		`data-count="completed">1<`,
		"PKG-MS-047",
		"17days",
	)
	if srv.shots.calls.Load() != 0 || srv.attendance.calls.Load() != 0 {
		t.Error("dashboard must not read the record store")
	}
}

// TestNav_FallbackPagesShowDashboard verifies Logs and Leaves render the dashboard
// with their own nav entry highlighted.
func TestNav_FallbackPagesShowDashboard(t *testing.T) {
	srv := newTestServer(t, nil, nil, time.Second)
	for _, tt := range []struct {
		path string
		page shell.PageID
	}{
		{"/task", shell.PageTask},
		{"/logs", shell.PageLogs},
		{"/leaves", shell.PageLeaves},
	} {
		rec := srv.get(tt.path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.path, rec.Code)
		}
		body := rec.Body.String()
		assertContains(t, body, "OFX-Production Pipeline", `class="nav-item active" data-page="`+string(tt.page)+`"`)
	}
}

// TestNav_OrderInLayout verifies the side navigation order.
func TestNav_OrderInLayout(t *testing.T) {
	srv := newTestServer(t, nil, nil, time.Second)
	body := srv.get("/", nil).Body.String()

	last := -1
	for _, label := range []string{`title="Task"`, `title="Shots"`, `title="Attendance"`, `title="Logs"`, `title="Leaves"`} {
		i := strings.Index(body, label)
		if i < 0 || i < last {
			t.Fatalf("nav entry %s missing or out of order", label)
		}
		last = i
	}
}

// TestUnknownRoute_NotFound verifies unmatched paths 404.
func TestUnknownRoute_NotFound(t *testing.T) {
	srv := newTestServer(t, nil, nil, time.Second)
	if rec := srv.get("/reports", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestStatic_ServesStylesheet verifies embedded assets are served.
func TestStatic_ServesStylesheet(t *testing.T) {
	srv := newTestServer(t, nil, nil, time.Second)
	rec := srv.get("/static/app.css", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	assertContains(t, rec.Body.String(), ".nav-item")
}

// --- Tests: shots page ---

// TestShots_LoadsOnceAndFilters verifies filter changes reuse the fetched set.
func TestShots_LoadsOnceAndFilters(t *testing.T) {
	srv := newTestServer(t, &mockShotStore{shots: sampleShots()}, nil, time.Second)

	rec := srv.get("/shots", nil)
	cookie := workspaceCookie(t, rec)
	assertContains(t, rec.Body.String(), "BETA_0010", "DKT_0020", "FIRE_0030", "Mar 5, 2024", "Jan 2, 2024")

	rec = srv.get("/shots/view?client=LLP&project=All&q=", cookie)
	body := rec.Body.String()
	assertContains(t, body, "BETA_0010", "FIRE_0030", `<option value="LLP" selected>`)
	assertNotContains(t, body, "DKT_0020")

	rec = srv.get("/shots/view?client=All&project=All&q=marco", cookie)
	body = rec.Body.String()
	assertContains(t, body, "DKT_0020")
	assertNotContains(t, body, "BETA_0010")

	if got := srv.shots.calls.Load(); got != 1 {
		t.Errorf("ListAll calls = %d, want 1", got)
	}
}

// TestShots_UnknownStatusAndWorkload verifies unknown statuses keep their label and
// workload is shown unclamped while the bar is capped.
func TestShots_UnknownStatusAndWorkload(t *testing.T) {
	srv := newTestServer(t, &mockShotStore{shots: sampleShots()}, nil, time.Second)
	body := srv.get("/shots", nil).Body.String()

	assertContains(t, body, "On Hold", "#6B7280", "140%", "width: 100%")
}

// TestShots_EmptyState verifies an empty store renders the empty message.
func TestShots_EmptyState(t *testing.T) {
	srv := newTestServer(t, &mockShotStore{}, nil, time.Second)
	body := srv.get("/shots", nil).Body.String()

	assertContains(t, body, "No shots found")
	assertNotContains(t, body, "Loading shots...")
}

// TestShots_FetchFailureLooksEmpty verifies a failed read is indistinguishable from no records.
func TestShots_FetchFailureLooksEmpty(t *testing.T) {
	srv := newTestServer(t, &mockShotStore{err: context.DeadlineExceeded}, nil, time.Second)
	rec := srv.get("/shots", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	assertContains(t, rec.Body.String(), "No shots found")
}

// TestShots_LoadingPlaceholder verifies a slow fetch renders the placeholder with a refresh.
func TestShots_LoadingPlaceholder(t *testing.T) {
	store := &mockShotStore{shots: sampleShots(), block: make(chan struct{})}
	srv := newTestServer(t, store, nil, 20*time.Millisecond)

	rec := srv.get("/shots", nil)
	cookie := workspaceCookie(t, rec)
	body := rec.Body.String()
	assertContains(t, body, "Loading shots...", `http-equiv="refresh"`, "/shots/view?client=All&amp;project=All&amp;q=")
	assertNotContains(t, body, "No shots found")

	close(store.block)
	waitFor(t, time.Second, func() bool {
		return strings.Contains(srv.get("/shots/view?client=All&project=All&q=", cookie).Body.String(), "BETA_0010")
	})
	if got := store.calls.Load(); got != 1 {
		t.Errorf("ListAll calls = %d, want 1", got)
	}
}

// TestShots_RemountResetsSelection verifies navigating again re-fetches and clears filters.
func TestShots_RemountResetsSelection(t *testing.T) {
	srv := newTestServer(t, &mockShotStore{shots: sampleShots()}, nil, time.Second)

	cookie := workspaceCookie(t, srv.get("/shots", nil))
	srv.get("/shots/view?client=RUL", cookie)
	body := srv.get("/shots", cookie).Body.String()

	assertContains(t, body, "BETA_0010", "DKT_0020", `<option value="All" selected>All Clients</option>`)
	if got := srv.shots.calls.Load(); got != 2 {
		t.Errorf("ListAll calls = %d, want 2", got)
	}
}

// TestShotsView_MountsWhenOpenedDirectly verifies a view URL without a mounted page fetches first.
func TestShotsView_MountsWhenOpenedDirectly(t *testing.T) {
	srv := newTestServer(t, &mockShotStore{shots: sampleShots()}, nil, time.Second)
	body := srv.get("/shots/view?client=RUL", nil).Body.String()

	assertContains(t, body, "DKT_0020")
	assertNotContains(t, body, "BETA_0010")
	if got := srv.shots.calls.Load(); got != 1 {
		t.Errorf("ListAll calls = %d, want 1", got)
	}
}

// TestNavigateAway_CancelsFetch verifies leaving the shots page cancels its read.
func TestNavigateAway_CancelsFetch(t *testing.T) {
	store := &mockShotStore{block: make(chan struct{})}
	t.Cleanup(func() { close(store.block) })
	srv := newTestServer(t, store, nil, 10*time.Millisecond)

	cookie := workspaceCookie(t, srv.get("/shots", nil))
	srv.get("/task", cookie)

	waitFor(t, time.Second, func() bool { return store.cancelCount() == 1 })
}

// --- Tests: attendance page ---

func attendanceFixture(t *testing.T) []domainAttendance.Record {
	return []domainAttendance.Record{
		record(t, "a1", "Aiko", "2024-01-15", domainAttendance.StatusPresent, "09:00:00", "17:30:00", ""),
		record(t, "a2", "Marco", "2024-01-15", domainAttendance.StatusRemote, "08:00", "", "Working **from home**"),
		record(t, "a3", "Priya", "2024-01-15", domainAttendance.StatusAbsent, "18:00", "09:00", ""),
		record(t, "a4", "Zoe", "2024-01-14", domainAttendance.StatusOnLeave, "", "", "Holiday"),
	}
}

// TestViewer_CookielessRequestsAreBounded verifies clients that never send the
// workspace cookie back cannot grow the workspace store past its capacity.
func TestViewer_CookielessRequestsAreBounded(t *testing.T) {
	srv := newTestServer(t, &mockShotStore{shots: sampleShots()}, nil, 0)

	for i := 0; i < 500; i++ {
		rec := srv.get("/shots", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
		if n := srv.workspaces.Len(); n > testWorkspaceCapacity {
			t.Fatalf("request %d: workspaces = %d, want <= %d", i, n, testWorkspaceCapacity)
		}
	}

	// A returning viewer survives the flood of one-off visitors.
	cookie := workspaceCookie(t, srv.get("/shots", nil))
	srv.get("/shots/view?client=LLP", cookie)
	for i := 0; i < 200; i++ {
		srv.get("/", nil)
	}
	rec := srv.get("/shots/view?client=LLP", cookie)
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.WorkspaceCookieName {
			t.Errorf("returning viewer was issued a new workspace: %s", c.Value)
		}
	}
}

// TestAttendance_DefaultsToToday verifies the page opens on today's date with counts and durations.
func TestAttendance_DefaultsToToday(t *testing.T) {
	srv := newTestServer(t, nil, &mockAttendanceStore{records: attendanceFixture(t)}, time.Second)
	body := srv.get("/attendance", nil).Body.String()

	assertContains(t, body,
		`value="2024-01-15"`,
		"Monday, January 15, 2024",
		`data-count="present">1<`,
		`data-count="remote">1<`,
		`data-count="absent">1<`,
		`data-count="on-leave">0<`,
		"8h 30m",
		"09:00 AM",
		"05:30 PM",
		"No notes",
		"<strong>from home</strong>",
		"Invalid",
	)
	assertNotContains(t, body, "Zoe")
}

// TestAttendance_SelectDate verifies a date change filters without re-fetching
// and invalid dates leave the selection unchanged.
func TestAttendance_SelectDate(t *testing.T) {
	srv := newTestServer(t, nil, &mockAttendanceStore{records: attendanceFixture(t)}, time.Second)

	cookie := workspaceCookie(t, srv.get("/attendance", nil))
	body := srv.get("/attendance/view?date=2024-01-14", cookie).Body.String()
	assertContains(t, body, "Zoe", "Holiday", `value="2024-01-14"`)
	assertNotContains(t, body, "Aiko")

	body = srv.get("/attendance/view?date=not-a-date", cookie).Body.String()
	assertContains(t, body, "Zoe", `value="2024-01-14"`)

	body = srv.get("/attendance/view?date=2023-06-01", cookie).Body.String()
	assertContains(t, body, "No attendance records for this date")

	if got := srv.attendance.calls.Load(); got != 1 {
		t.Errorf("ListAll calls = %d, want 1", got)
	}
}

// TestAttendance_RemountResetsDate verifies navigating again returns to today.
func TestAttendance_RemountResetsDate(t *testing.T) {
	srv := newTestServer(t, nil, &mockAttendanceStore{records: attendanceFixture(t)}, time.Second)

	cookie := workspaceCookie(t, srv.get("/attendance", nil))
	srv.get("/attendance/view?date=2024-01-14", cookie)
	body := srv.get("/attendance", cookie).Body.String()

	assertContains(t, body, `value="2024-01-15"`, "Aiko")
	if got := srv.attendance.calls.Load(); got != 2 {
		t.Errorf("ListAll calls = %d, want 2", got)
	}
}

// TestFormatDate verifies stored dates are displayed, with fallbacks for empty and malformed values.
func TestFormatDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2024-03-05", "Mar 5, 2024"},
		{"", "-"},
		{"2024-13-40", "2024-13-40"},
	}
	for _, tt := range tests {
		if got := formatDate(tt.raw, shotDateDisplay); got != tt.want {
			t.Errorf("formatDate(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

// TestBarWidth verifies the bar width is clamped to [0,100].
func TestBarWidth(t *testing.T) {
	tests := []struct{ in, want int }{{-5, 0}, {0, 0}, {60, 60}, {100, 100}, {140, 100}}
	for _, tt := range tests {
		if got := barWidth(tt.in); got != tt.want {
			t.Errorf("barWidth(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// TestShotsViewURL verifies the refresh URL carries the selection.
func TestShotsViewURL(t *testing.T) {
	got := shotsViewURL(projections.ShotFilter{Client: "LLP", Project: "All", Search: "a b"})
	if got != "/shots/view?client=LLP&project=All&q=a+b" {
		t.Errorf("shotsViewURL = %q", got)
	}
}
