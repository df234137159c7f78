package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"shotbuzz/internal/application/shell"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const workspaceContextKey contextKey = "workspace"

// WorkspaceCookieName holds the viewer's workspace token.
const WorkspaceCookieName = "shotbuzz_workspace"

// viewerlessPrefixes are served without a workspace.
var viewerlessPrefixes = []string{"/api/", "/metrics", "/debug/", "/healthz", "/static/"}

// Viewer returns middleware that attaches the viewer's workspace to the request
// context, creating one (and its cookie) for new or expired tokens.
// Machine endpoints and static assets are passed through untouched.
// secure marks the cookie Secure and is set in production.
func Viewer(store *shell.WorkspaceStore, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range viewerlessPrefixes {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			var ws *shell.Workspace
			if cookie, err := r.Cookie(WorkspaceCookieName); err == nil && cookie.Value != "" {
				ws, _ = store.Get(cookie.Value)
			}
			if ws == nil {
				token, created, err := store.Create()
				if err != nil {
					slog.Error("internal_error", "error", err.Error())
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				SetWorkspaceCookie(w, token, secure)
				ws = created
			}
			next.ServeHTTP(w, r.WithContext(ContextWithWorkspace(r.Context(), ws)))
		})
	}
}

// WorkspaceFromContext extracts the viewer's workspace from the request context.
func WorkspaceFromContext(ctx context.Context) (*shell.Workspace, bool) {
	ws, ok := ctx.Value(workspaceContextKey).(*shell.Workspace)
	return ws, ok && ws != nil
}

// ContextWithWorkspace returns a context carrying ws.
func ContextWithWorkspace(ctx context.Context, ws *shell.Workspace) context.Context {
	return context.WithValue(ctx, workspaceContextKey, ws)
}

// SetWorkspaceCookie sets the workspace cookie on the response.
func SetWorkspaceCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     WorkspaceCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
