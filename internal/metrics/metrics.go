package metrics

import (
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"herald/internal/session"
)

type Metrics struct {
	Turns       *prometheus.CounterVec
	Latency     *prometheus.HistogramVec
	Activations prometheus.Counter
	Active      prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Turns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herald_turns_total",
				Help: "Dispatched utterances by intent and outcome",
			},
			[]string{"intent", "outcome"},
		),
		Latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "herald_dispatch_duration_seconds",
				Help:    "Time from utterance to response",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
			},
			[]string{"intent"},
		),
		Activations: f.NewCounter(
			prometheus.CounterOpts{
				Name: "herald_activations_total",
				Help: "Wake word activations",
			},
		),
		Active: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "herald_active",
				Help: "1 while the assistant is active",
			},
		),
	}
}

func (m *Metrics) Observe(ev session.Event) {
	switch ev.Kind {
	case session.EventState:
		if ev.To == session.Active {
			m.Activations.Inc()
			m.Active.Set(1)
		} else {
			m.Active.Set(0)
		}
	case session.EventTurn:
		label := string(ev.Intent)
		if label == "" {
			label = "none"
		}
		m.Turns.WithLabelValues(label, outcome(ev)).Inc()
		m.Latency.WithLabelValues(label).Observe(ev.Latency.Seconds())
	}
}

func outcome(ev session.Event) string {
	switch {
	case ev.Terminate:
		return "terminate"
	case ev.Failed:
		return "failed"
	case ev.Fallback:
		return "fallback"
	default:
		return "handled"
	}
}

// Serve exposes /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
