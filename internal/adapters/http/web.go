package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"shotbuzz/internal/adapters/http/middleware"
	"shotbuzz/internal/adapters/http/perf"
	"shotbuzz/internal/application/projections"
	"shotbuzz/internal/application/shell"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// DefaultLoadWait bounds how long a page request waits for its fetch.
const DefaultLoadWait = 2 * time.Second

// DefaultFetchTimeout bounds a one-shot API fetch when the loaders set none.
const DefaultFetchTimeout = 30 * time.Second

// Pinger reports database liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options tune the HTTP surface.
type Options struct {
	LoadWait       time.Duration
	SlowRequest    time.Duration
	CSRFKey        []byte // 32 bytes
	TrustedOrigins []string
	RateLimit      int // requests per second per IP
	SecureCookies  bool
}

// Deps holds everything NewMux wires together.
type Deps struct {
	// Loaders are the record reads shared by workspaces and the JSON API.
	Loaders    shell.Loaders
	Projects   projections.ProjectSource
	Workspaces *shell.WorkspaceStore
	Collector  *perf.Collector
	Metrics    *perf.Metrics
	DB         Pinger
	// Base is the parent context for background fetches. It must outlive requests.
	Base    context.Context
	Options Options
}

// app carries handler dependencies.
type app struct {
	loaders    shell.Loaders
	projects   projections.ProjectSource
	workspaces *shell.WorkspaceStore
	collector  *perf.Collector
	metrics    *perf.Metrics
	db         Pinger
	base       context.Context
	opts       Options
}

// NewMux wires HTTP handlers for the app.
// PRE: Loaders, Projects, Workspaces and Base are set; CSRFKey is 32 bytes
// POST: Returns the handler with the full middleware chain applied
func NewMux(deps Deps) http.Handler {
	opts := deps.Options
	if opts.LoadWait <= 0 {
		opts.LoadWait = DefaultLoadWait
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 100
	}
	a := &app{
		loaders:    deps.Loaders,
		projects:   deps.Projects,
		workspaces: deps.Workspaces,
		collector:  deps.Collector,
		metrics:    deps.Metrics,
		db:         deps.DB,
		base:       deps.Base,
		opts:       opts,
	}

	mux := http.NewServeMux()
	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	a.registerRoutes(mux)

	limiter := middleware.NewRateLimiter(deps.Base, opts.RateLimit, time.Second)

	// Applied inner to outer: Timing -> Viewer -> RateLimit -> CSRF -> SecurityHeaders.
	// Timing wraps the mux directly so it can read the matched pattern.
	return middleware.Chain(mux,
		middleware.Timing(deps.Collector, deps.Metrics, opts.SlowRequest),
		middleware.Viewer(deps.Workspaces, opts.SecureCookies),
		middleware.RateLimit(limiter),
		middleware.CSRF(opts.CSRFKey, opts.TrustedOrigins, opts.SecureCookies),
		middleware.SecurityHeaders,
	)
}

// registerRoutes maps every route to its handler.
func (a *app) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleNav(shell.PageTask))
	mux.HandleFunc("GET /task", a.handleNav(shell.PageTask))
	mux.HandleFunc("GET /logs", a.handleNav(shell.PageLogs))
	mux.HandleFunc("GET /leaves", a.handleNav(shell.PageLeaves))
	mux.HandleFunc("GET /shots", a.handleNav(shell.PageShots))
	mux.HandleFunc("GET /shots/view", a.handleShotsView)
	mux.HandleFunc("GET /attendance", a.handleNav(shell.PageAttendance))
	mux.HandleFunc("GET /attendance/view", a.handleAttendanceView)

	mux.HandleFunc("GET /api/shots", a.handleAPIShots)
	mux.HandleFunc("GET /api/attendance", a.handleAPIAttendance)
	mux.HandleFunc("GET /api/dashboard", a.handleAPIDashboard)

	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /debug/perf", a.handlePerf)
	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics.Handler())
	}
}
