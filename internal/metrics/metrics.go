// Package metrics exposes the outcome of a check run as Prometheus gauges pushed to a Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/stock-flow/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder collects the outcome of a run and publishes it.
type Recorder interface {
	// Observe records the run. result may be nil when the run aborted before persisting.
	Observe(result *models.RunResult, duration time.Duration, runErr error)
	// Push publishes the recorded values.
	Push(ctx context.Context) error
}

// pushRecorder keeps the gauges of a single run in its own registry.
type pushRecorder struct {
	log      *slog.Logger
	registry *prometheus.Registry
	pusher   *push.Pusher

	products    prometheus.Gauge
	changes     *prometheus.GaugeVec
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
	failed      prometheus.Gauge
}

var (
	_ Recorder = (*pushRecorder)(nil)
	_ Recorder = (*noopRecorder)(nil)
)

// New returns a Recorder pushing to pushURL under the given job name.
// An empty pushURL yields a no-op recorder.
func New(log *slog.Logger, pushURL, job string) Recorder {
	if pushURL == "" {
		return &noopRecorder{}
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &pushRecorder{
		log:      log,
		registry: reg,
		pusher:   push.New(pushURL, job).Gatherer(reg),

		products: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stockflow_products",
			Help: "Number of products in the latest snapshot",
		}),
		changes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockflow_changes",
			Help: "Number of availability changes detected by the latest run",
		}, []string{"kind"}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stockflow_run_duration_seconds",
			Help: "Wall time of the latest run in seconds",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stockflow_last_success_timestamp_seconds",
			Help: "Unix time of the latest fully successful run",
		}),
		failed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stockflow_run_failed",
			Help: "1 if the latest run returned an error, 0 otherwise",
		}),
	}
}

// Observe implements Recorder.
func (r *pushRecorder) Observe(result *models.RunResult, duration time.Duration, runErr error) {
	r.duration.Set(duration.Seconds())

	if result != nil {
		r.products.Set(float64(result.Products))
		counts := models.CountByKind(result.Changes)
		for _, kind := range []models.ChangeKind{models.ChangeNew, models.ChangeChanged, models.ChangeRemoved} {
			r.changes.WithLabelValues(string(kind)).Set(float64(counts[kind]))
		}
	}

	if runErr != nil {
		r.failed.Set(1)
		return
	}

	r.failed.Set(0)
	r.lastSuccess.SetToCurrentTime()
}

// Push sends the gauges to the Pushgateway, replacing the previous group of the job.
func (r *pushRecorder) Push(ctx context.Context) error {
	const opn = "metrics.pushRecorder.Push"

	if err := r.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("%s: failed to push metrics: %w", opn, err)
	}

	r.log.DebugContext(ctx, "Metrics pushed", "op", opn)

	return nil
}

// noopRecorder is used when no Pushgateway is configured.
type noopRecorder struct{}

func (n *noopRecorder) Observe(_ *models.RunResult, _ time.Duration, _ error) {}
func (n *noopRecorder) Push(_ context.Context) error                          { return nil }
