package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"shotbuzz/internal/adapters/http/middleware"
	"shotbuzz/internal/application/projections"
	"shotbuzz/internal/application/shell"
	domainAttendance "shotbuzz/internal/domain/attendance"
	domainShot "shotbuzz/internal/domain/shot"
	"shotbuzz/internal/domain/workstatus"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode_failed", "error", err.Error())
	}
}

// pageData is what layout.html renders around every page.
type pageData struct {
	Title      string
	Selected   shell.PageID
	Nav        []shell.NavItem
	Loading    bool
	RefreshURL string
	Body       any
}

// Display formats for stored dates.
const (
	shotDateDisplay = "Jan 2, 2006"
	longDateDisplay = "Monday, January 2, 2006"
)

// formatDate renders a YYYY-MM-DD value in layout. Empty renders "-" and
// unparseable values render as stored.
func formatDate(raw, layout string) string {
	if raw == "" {
		return "-"
	}
	t, err := time.Parse(domainShot.DateLayout, raw)
	if err != nil {
		return raw
	}
	return t.Format(layout)
}

// barWidth clamps a workload percentage for the progress bar width only.
// The number shown next to the bar is never clamped.
func barWidth(workload int) int {
	return min(max(workload, 0), 100)
}

func statusStyle(s workstatus.Status) template.CSS {
	st := s.Style()
	return template.CSS(fmt.Sprintf("background: linear-gradient(90deg, %s, %s); color: #0B0F17;", st.From, st.To))
}

func badgeStyle(s domainAttendance.Status) template.CSS {
	b := s.Badge()
	return template.CSS(fmt.Sprintf("background: linear-gradient(90deg, %s, %s); color: %s;", b.From, b.To, b.TextColor))
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data pageData) {
	funcMap := template.FuncMap{
		"csrfToken": func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"shotDate":    func(raw string) string { return formatDate(raw, shotDateDisplay) },
		"longDate":    func(raw string) string { return formatDate(raw, longDateDisplay) },
		"barWidth":    barWidth,
		"statusStyle": statusStyle,
		"badgeStyle":  badgeStyle,
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// workspace returns the viewer's workspace set by the Viewer middleware.
func workspace(w http.ResponseWriter, r *http.Request) (*shell.Workspace, bool) {
	ws, ok := middleware.WorkspaceFromContext(r.Context())
	if !ok {
		internalError(w, fmt.Errorf("no workspace for %s", r.URL.Path))
	}
	return ws, ok
}

// handleNav handles a side navigation click: it selects the page and remounts it.
func (a *app) handleNav(id shell.PageID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(w, r)
		if !ok {
			return
		}
		mounted := ws.Navigate(id)
		a.renderMounted(w, r, ws, mounted)
	}
}

// handleShotsView handles GET /shots/view. Applies a new selection to the shots page.
// Changing the selection never re-fetches.
func (a *app) handleShotsView(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	ws.Mount(shell.PageShots)
	q := r.URL.Query()
	ws.SetShotFilter(projections.ShotFilter{
		Client:  q.Get("client"),
		Project: q.Get("project"),
		Search:  q.Get("q"),
	})
	a.renderMounted(w, r, ws, shell.PageShots)
}

// handleAttendanceView handles GET /attendance/view. Selects a new date.
func (a *app) handleAttendanceView(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	ws.Mount(shell.PageAttendance)
	if date := r.URL.Query().Get("date"); date != "" {
		ws.SelectDate(date)
	}
	a.renderMounted(w, r, ws, shell.PageAttendance)
}

// renderMounted renders the page a workspace has mounted, waiting up to LoadWait
// for its fetch. A page still loading renders its placeholder and refreshes.
func (a *app) renderMounted(w http.ResponseWriter, r *http.Request, ws *shell.Workspace, mounted shell.PageID) {
	data := pageData{
		Title:    "ShotBuzz",
		Selected: ws.Selected(),
		Nav:      shell.NavItems,
	}
	switch mounted {
	case shell.PageShots:
		result, ready := ws.ShotsView(r.Context(), a.opts.LoadWait)
		data.Title = "Shot's Tracking · ShotBuzz"
		data.Loading = !ready
		data.RefreshURL = shotsViewURL(result.Filter)
		data.Body = result
		renderTemplate(w, r, "shots.html", data)
	case shell.PageAttendance:
		result, ready := ws.AttendanceView(r.Context(), a.opts.LoadWait)
		data.Title = "Team Attendance · ShotBuzz"
		data.Loading = !ready
		data.RefreshURL = attendanceViewURL(result.Date)
		data.Body = result
		renderTemplate(w, r, "attendance.html", data)
	default:
		data.Body = projections.QueryDashboard(projections.DashboardDeps{Projects: a.projects})
		renderTemplate(w, r, "dashboard.html", data)
	}
}

func shotsViewURL(f projections.ShotFilter) string {
	v := url.Values{}
	v.Set("client", f.Client)
	v.Set("project", f.Project)
	v.Set("q", f.Search)
	return "/shots/view?" + v.Encode()
}

func attendanceViewURL(date string) string {
	v := url.Values{}
	v.Set("date", date)
	return "/attendance/view?" + v.Encode()
}
