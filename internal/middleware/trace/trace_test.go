package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"myexpense/internal/log"
)

func TestMiddleware_AssignsRequestID(t *testing.T) {
	m := NewMiddleware(log.Discard(), nil)

	var seen string
	var ctxLogger *log.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		ctxLogger = log.FromContext(r.Context())
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id = %q, want req_ prefix", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Errorf("response header = %q, want %q", rr.Header().Get(HeaderRequestID), seen)
	}
	if ctxLogger == nil {
		t.Error("request context carries no logger")
	}
	if got := m.GetMetrics(); got.TotalRequests != 1 || got.ServerFailures != 1 {
		t.Errorf("GetMetrics() = %+v", got)
	}
}

func TestMiddleware_ReusesIncomingID(t *testing.T) {
	m := NewMiddleware(log.Discard(), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		incoming string
		reuse    bool
	}{
		{"abc-123", true},
		{"bad id with spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderRequestID, tt.incoming)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if got := rr.Header().Get(HeaderRequestID) == tt.incoming; got != tt.reuse {
			t.Errorf("incoming %q reused = %v, want %v", tt.incoming, got, tt.reuse)
		}
	}
}
