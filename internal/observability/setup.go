package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Logger is the structured logger for hot paths where logrus field allocation
// is too heavy.
var Logger *zap.Logger

var enforcementDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chatwarden_enforcement_duration_seconds",
		Help:    "Time spent evaluating one update against the chat's locks",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// Init sets up zap, the otel tracer provider and the Prometheus endpoint.
func Init(ctx context.Context, metricsAddr string) error {
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		return err
	}

	prometheus.MustRegister(enforcementDuration)

	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return nil
}

// StartEnforcement returns a function recording the evaluation duration under
// the final outcome label.
func StartEnforcement() func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		enforcementDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
}
