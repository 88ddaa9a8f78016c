package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/codecompanion-backend/internal/platform/envutil"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	sseConnections *Gauge
	sseFrames      *CounterVec
	sseDropped     *Counter

	published      *CounterVec
	publishFailed  *Counter
	publishLatency *HistogramVec

	dbPool *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, or nil when metrics are disabled.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// New builds an unregistered metrics set.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("cc_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cc_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("cc_api_inflight_requests", "In-flight API requests."),

		sseConnections: NewGauge("cc_sse_connections", "Live notification streams."),
		sseFrames:      NewCounterVec("cc_sse_frames_total", "Frames written to notification streams by kind.", []string{"kind"}),
		sseDropped:     NewCounter("cc_sse_frames_dropped_total", "Frames dropped because a stream was closed or its buffer was full."),

		published:     NewCounterVec("cc_notifications_published_total", "Notifications persisted by type/scope.", []string{"type", "scope"}),
		publishFailed: NewCounter("cc_notifications_publish_failures_total", "Notifications that failed to persist."),
		publishLatency: NewHistogramVec(
			"cc_notifications_publish_duration_seconds",
			"Persist plus live fan-out latency.",
			[]string{"scope"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		),

		dbPool: NewGaugeVec("cc_db_pool", "database/sql pool statistics.", []string{"stat"}),
	}
}

// Serve exposes the metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, log *logger.Logger, addr string) error {
	if m == nil {
		return nil
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	if log != nil {
		log.Info("metrics server listening", "addr", addr)
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.sseConnections,
		m.sseFrames,
		m.sseDropped,
		m.published,
		m.publishFailed,
		m.publishLatency,
		m.dbPool,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

// ConnectionsChanged, FrameWritten and FrameDropped make *Metrics a
// realtime.Observer.
func (m *Metrics) ConnectionsChanged(n int) {
	if m == nil {
		return
	}
	m.sseConnections.Set(float64(n))
}

func (m *Metrics) FrameWritten(kind string) {
	if m == nil {
		return
	}
	m.sseFrames.Inc(kind)
}

func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}
	m.sseDropped.Inc()
}

func (m *Metrics) ObservePublish(notificationType, scope string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.publishFailed.Inc()
		return
	}
	m.published.Inc(notificationType, scope)
	m.publishLatency.Observe(dur.Seconds(), scope)
}

// StartDBCollector samples connection pool stats every interval until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sampleDB(log, db)
			}
		}
	}()
}

func (m *Metrics) sampleDB(log *logger.Logger, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: db stats unavailable", "error", err)
		}
		return
	}
	stats := sqlDB.Stats()
	m.dbPool.Set(float64(stats.OpenConnections), "open_connections")
	m.dbPool.Set(float64(stats.InUse), "in_use")
	m.dbPool.Set(float64(stats.Idle), "idle")
	m.dbPool.Set(float64(stats.WaitCount), "wait_count")
	m.dbPool.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
	m.dbPool.Set(float64(stats.MaxOpenConnections), "max_open_connections")
}

func StatusLabel(code int) string {
	return strconv.Itoa(code)
}
