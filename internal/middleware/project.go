package middleware

import (
	"context"
	"net/http"
)

// ProjectHeader attributes a request's spend to a project.
const ProjectHeader = "X-Tokencap-Project-Id"

type contextKey string

const projectIDKey contextKey = "tokencap.project_id"

// ProjectID resolves the project a request charges against: the
// header, then the project_id query parameter, then the configured
// default.
func ProjectID(defaultID string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			project := r.Header.Get(ProjectHeader)
			if project == "" {
				project = r.URL.Query().Get("project_id")
			}
			if project == "" {
				project = defaultID
			}

			ctx := context.WithValue(r.Context(), projectIDKey, project)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProjectFromContext returns the project resolved by ProjectID, or ""
// outside that middleware.
func ProjectFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(projectIDKey).(string); ok {
		return v
	}
	return ""
}
