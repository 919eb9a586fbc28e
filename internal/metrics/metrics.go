package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	EventsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "txindexer_events_emitted_total", Help: "Events appended to the bus"},
		[]string{"channel"},
	)
	FlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "txindexer_flush_duration_seconds", Help: "Bus append and trim latency", Buckets: prometheus.DefBuckets},
		[]string{"channel"},
	)
	LastBlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "txindexer_last_block_height", Help: "Last block whose events were delivered"},
	)
)

func init() {
	prometheus.MustRegister(EventsEmitted, FlushDuration, LastBlockHeight)
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", zap.Error(err))
		}
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
