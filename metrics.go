// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the bridge counters. A nil *Metrics records nothing.
type Metrics struct {
	Issued   *prometheus.CounterVec
	Chunks   *prometheus.CounterVec
	Filtered *prometheus.CounterVec
	Finals   *prometheus.CounterVec
	Dropped  *prometheus.CounterVec
	InFlight prometheus.Gauge
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the bridge metrics. They are not registered;
// use Register.
func NewMetrics() *Metrics {
	return &Metrics{
		Issued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "elliptics",
				Subsystem: "bridge",
				Name:      "operations_issued_total",
				Help:      "Total number of operations issued",
			},
			[]string{"op"},
		),
		Chunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "elliptics",
				Subsystem: "bridge",
				Name:      "chunks_total",
				Help:      "Total number of chunks routed to receivers",
			},
			[]string{"op", "status"},
		),
		Filtered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "elliptics",
				Subsystem: "bridge",
				Name:      "chunks_filtered_total",
				Help:      "Total number of replies suppressed by the filter policy",
			},
			[]string{"op"},
		),
		Finals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "elliptics",
				Subsystem: "bridge",
				Name:      "finals_total",
				Help:      "Total number of final completions routed to receivers",
			},
			[]string{"op", "status"},
		),
		Dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "elliptics",
				Subsystem: "bridge",
				Name:      "dropped_total",
				Help:      "Total number of client callbacks dropped as protocol violations",
			},
			[]string{"op", "reason"},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "elliptics",
				Subsystem: "bridge",
				Name:      "operations_in_flight",
				Help:      "Number of operations whose final completion is not yet delivered",
			},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "elliptics",
				Subsystem: "bridge",
				Name:      "operation_duration_seconds",
				Help:      "Time from issue to the client's final callback",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Issued, m.Chunks, m.Filtered, m.Finals, m.Dropped, m.InFlight, m.Duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func status(info ErrorInfo) string {
	if info.Code == 0 {
		return "ok"
	}
	return "error"
}

func (m *Metrics) issued(op string) {
	if m == nil {
		return
	}
	m.Issued.WithLabelValues(op).Inc()
	m.InFlight.Inc()
}

func (m *Metrics) chunk(op string, info ErrorInfo) {
	if m == nil {
		return
	}
	m.Chunks.WithLabelValues(op, status(info)).Inc()
}

func (m *Metrics) filtered(op string) {
	if m == nil {
		return
	}
	m.Filtered.WithLabelValues(op).Inc()
}

func (m *Metrics) final(op string, info ErrorInfo, d time.Duration) {
	if m == nil {
		return
	}
	m.Finals.WithLabelValues(op, status(info)).Inc()
	m.Duration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) dropped(op, reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(op, reason).Inc()
}

func (m *Metrics) released() {
	if m == nil {
		return
	}
	m.InFlight.Dec()
}
