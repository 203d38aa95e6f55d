// Package metrics exposes the acquisition event stream as Prometheus
// metrics for dashboarding. It is an observer like any other front end
// and is wired in only when a listen address is configured.
package metrics

import (
	"net/http"

	"github.com/dalphys/chromatographd/internal/acq"
	"github.com/dalphys/chromatographd/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Observer struct {
	cyclesTotal  *prometheus.CounterVec
	samplesTotal prometheus.Counter
	lastSample   prometheus.Gauge
	currentPhase prometheus.Gauge
	driftSeconds prometheus.Gauge

	server *http.Server
}

// New registers the collectors with a fresh registry and, if listen is
// non-empty, serves /metrics on it.
func New(listen string) *Observer {
	o := &Observer{
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chromatograph_cycles_total",
			Help: "Finished acquisition cycles by terminal status.",
		}, []string{"status"}),
		samplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chromatograph_samples_total",
			Help: "Total samples collected.",
		}),
		lastSample: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chromatograph_last_sample_volts",
			Help: "Most recent differential reading.",
		}),
		currentPhase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chromatograph_current_phase",
			Help: "Current cycle phase as its enum value.",
		}),
		driftSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chromatograph_sample_drift_seconds",
			Help: "Accumulated sampling schedule push-back of the last cycle.",
		}),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(o.cyclesTotal, o.samplesTotal, o.lastSample, o.currentPhase, o.driftSeconds)

	if listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		o.server = &http.Server{Addr: listen, Handler: mux}
		go func() {
			logger.Info().Str("listen", listen).Msg("metrics endpoint up")
			if err := o.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics endpoint failed")
			}
		}()
	}

	return o
}

func (o *Observer) OnEvent(e acq.Event) {
	switch ev := e.(type) {
	case acq.PhaseChanged:
		o.currentPhase.Set(float64(ev.Phase))
	case acq.SampleCollected:
		o.samplesTotal.Inc()
		o.lastSample.Set(ev.Sample.Value)
	case acq.CycleCompleted:
		o.cyclesTotal.WithLabelValues(ev.Result.Status.String()).Inc()
		o.driftSeconds.Set(ev.Result.Drift.Seconds())
	case acq.CycleCancelled:
		o.cyclesTotal.WithLabelValues(ev.Result.Status.String()).Inc()
	case acq.CycleFailed:
		o.cyclesTotal.WithLabelValues(ev.Result.Status.String()).Inc()
	}
}

// Close shuts the metrics endpoint down, if one was started.
func (o *Observer) Close() error {
	if o.server != nil {
		return o.server.Close()
	}

	return nil
}

var _ acq.Observer = (*Observer)(nil)
