package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PrometheusConfig configures the Pushgateway sink.
type PrometheusConfig struct {
	// PushURL is the Pushgateway address. Empty keeps metrics in the local
	// registry only.
	PushURL string `koanf:"push_url"`
	Job     string `koanf:"job"`
}

// Prometheus records model metrics as gauges and pushes them to a
// Pushgateway, grouped by run.
type Prometheus struct {
	cfg       PrometheusConfig
	registry  *prometheus.Registry
	f1        *prometheus.GaugeVec
	precision *prometheus.GaugeVec
	recall    *prometheus.GaugeVec
	size      *prometheus.GaugeVec
	mu        sync.Mutex
	logger    *slog.Logger
}

var metricLabels = []string{"run", "split", "model"}

// NewPrometheus creates the sink with its own registry.
// If logger is nil, a discard logger is used.
func NewPrometheus(cfg PrometheusConfig, logger *slog.Logger) *Prometheus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Job == "" {
		cfg.Job = "leapml"
	}

	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "leapml",
			Subsystem: "model",
			Name:      name,
			Help:      help,
		}, metricLabels)
	}

	p := &Prometheus{
		cfg:       cfg,
		registry:  prometheus.NewRegistry(),
		f1:        gauge("f1_score", "Weighted F1 score of the selected model."),
		precision: gauge("precision", "Weighted precision of the selected model."),
		recall:    gauge("recall", "Weighted recall of the selected model."),
		size:      gauge("artifact_bytes", "Encoded size of the selected model."),
		logger:    logger,
	}
	p.registry.MustRegister(p.f1, p.precision, p.recall, p.size)
	return p
}

// Registry exposes the sink's registry, e.g. for a scrape handler.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Report implements core.MetricsSink.
func (p *Prometheus) Report(ctx context.Context, r core.MetricReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	labels := prometheus.Labels{"run": r.RunName, "split": r.Split, "model": r.ModelName}
	p.f1.With(labels).Set(r.F1Score)
	p.precision.With(labels).Set(r.Precision)
	p.recall.With(labels).Set(r.Recall)
	p.size.With(labels).Set(float64(len(r.Artifact)))

	if p.cfg.PushURL == "" {
		return nil
	}

	pusher := push.New(p.cfg.PushURL, p.cfg.Job).
		Gatherer(p.registry).
		Grouping("run", r.RunName)
	if err := pusher.AddContext(ctx); err != nil {
		return fmt.Errorf("%w: push to %s: %w", core.ErrSink, p.cfg.PushURL, err)
	}
	p.logger.Debug("pushed model metrics", slog.String("run", r.RunName), slog.String("split", r.Split))
	return nil
}
