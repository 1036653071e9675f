package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resolveProject(t *testing.T, req *http.Request) string {
	t.Helper()
	var got string
	handler := ProjectID("default")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ProjectFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestProjectIDPriority(t *testing.T) {
	// Header wins over the query parameter.
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions?project_id=from-query", nil)
	req.Header.Set(ProjectHeader, "from-header")
	assert.Equal(t, "from-header", resolveProject(t, req))

	// Query parameter wins over the default.
	req = httptest.NewRequest(http.MethodPost, "/v1/chat/completions?project_id=from-query", nil)
	assert.Equal(t, "from-query", resolveProject(t, req))

	// Nothing set falls back to the configured default.
	req = httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	assert.Equal(t, "default", resolveProject(t, req))
}

func TestProjectFromContextOutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ProjectFromContext(req.Context()))
}

func TestStreamingResponseWriterCapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := NewStreamingResponseWriter(rec)

	_, err := ww.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, ww.StatusCode())
	assert.True(t, ww.Written())
	assert.Equal(t, int64(5), ww.BytesWritten())

	// Later WriteHeader calls must not clobber the committed status.
	ww.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusOK, ww.StatusCode())
}
