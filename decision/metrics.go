// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decision

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records decision engine activity. A nil *Metrics is a no-op.
type Metrics struct {
	ratingsRecorded    prometheus.Counter
	decisionsConfirmed *prometheus.CounterVec
	evaluations        *prometheus.CounterVec
}

// NewMetrics registers the engine metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ratingsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "household_pick_ratings_recorded_total",
			Help: "Total number of rating upserts accepted.",
		}),
		decisionsConfirmed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "household_pick_decisions_confirmed_total",
			Help: "Confirmed decisions, labelled by whether the choice matched the computed winner.",
		}, []string{"matched"}),
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "household_pick_evaluations_total",
			Help: "Decision evaluations, labelled by result cache outcome.",
		}, []string{"cache"}),
	}
}

func (m *Metrics) ratingRecorded() {
	if m == nil {
		return
	}
	m.ratingsRecorded.Inc()
}

func (m *Metrics) decisionConfirmed(matched bool) {
	if m == nil {
		return
	}
	m.decisionsConfirmed.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

func (m *Metrics) evaluation(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.evaluations.WithLabelValues(outcome).Inc()
}
