// internal/metrics/metrics.go

// Package metrics exposes prometheus collectors for room and action activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the collectors a room reports to. A nil *Recorder records
// nothing.
type Recorder struct {
	ActionsStarted   *prometheus.CounterVec
	ActionsCompleted *prometheus.CounterVec
	ActionsCancelled *prometheus.CounterVec
	ResponseErrors   *prometheus.CounterVec
	ActionDuration   *prometheus.HistogramVec
	RoomsActive      prometheus.Gauge
}

// New builds a Recorder and registers it with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ActionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stardeal_actions_started_total",
			Help: "Command actions opened, by action type.",
		}, []string{"action_type"}),
		ActionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stardeal_actions_completed_total",
			Help: "Command actions that produced a result, by action type.",
		}, []string{"action_type"}),
		ActionsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stardeal_actions_cancelled_total",
			Help: "Command actions cleared without a result, by action type and reason.",
		}, []string{"action_type", "reason"}),
		ResponseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stardeal_response_errors_total",
			Help: "Rejected player messages, by error kind.",
		}, []string{"kind"}),
		ActionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stardeal_action_duration_seconds",
			Help:    "Time from playing a command card to its result or cancellation.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"action_type"}),
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stardeal_rooms_active",
			Help: "Rooms currently registered.",
		}),
	}
	reg.MustRegister(r.ActionsStarted, r.ActionsCompleted, r.ActionsCancelled, r.ResponseErrors, r.ActionDuration, r.RoomsActive)
	return r
}

func (r *Recorder) Started(actionType string) {
	if r == nil {
		return
	}
	r.ActionsStarted.WithLabelValues(actionType).Inc()
}

func (r *Recorder) Completed(actionType string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.ActionsCompleted.WithLabelValues(actionType).Inc()
	r.ActionDuration.WithLabelValues(actionType).Observe(elapsed.Seconds())
}

func (r *Recorder) Cancelled(actionType, reason string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.ActionsCancelled.WithLabelValues(actionType, reason).Inc()
	r.ActionDuration.WithLabelValues(actionType).Observe(elapsed.Seconds())
}

// Rejected counts a player message the room refused. kind is a short error
// class such as "violation" or "parameter".
func (r *Recorder) Rejected(kind string) {
	if r == nil {
		return
	}
	r.ResponseErrors.WithLabelValues(kind).Inc()
}

func (r *Recorder) RoomOpened() {
	if r == nil {
		return
	}
	r.RoomsActive.Inc()
}

func (r *Recorder) RoomClosed() {
	if r == nil {
		return
	}
	r.RoomsActive.Dec()
}
