package observability

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.ObserveAPI("GET", "/api/notifications", "200", 20*time.Millisecond)
	m.ConnectionsChanged(3)
	m.FrameWritten("data")
	m.FrameWritten("data")
	m.FrameWritten("heartbeat")
	m.FrameDropped()
	m.ObservePublish("new_pattern", "role", 2*time.Millisecond, nil)
	m.ObservePublish("new_pattern", "role", 0, errors.New("boom"))

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`cc_api_requests_total{method="GET",route="/api/notifications",status="200"} 1`,
		`cc_sse_connections 3`,
		`cc_sse_frames_total{kind="data"} 2`,
		`cc_sse_frames_total{kind="heartbeat"} 1`,
		`cc_sse_frames_dropped_total 1`,
		`cc_notifications_published_total{type="new_pattern",scope="role"} 1`,
		`cc_notifications_publish_failures_total 1`,
		`cc_api_request_duration_seconds_bucket{method="GET",route="/api/notifications",status="200",le="+Inf"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ConnectionsChanged(1)
	m.FrameWritten("data")
	m.FrameDropped()
	m.ObservePublish("x", "user", 0, nil)
	m.ApiInflightInc()
	m.ApiInflightDec()

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", rec.Code)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route"}, []string{"a\"b\\c"})
	if got != `{route="a\"b\\c"}` {
		t.Fatalf("labelString: got=%s", got)
	}
	if withLe("", "0.5") != `{le="0.5"}` {
		t.Fatalf("withLe empty")
	}
}
