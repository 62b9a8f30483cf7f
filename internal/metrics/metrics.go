// Package metrics exposes the prometheus collectors observing the core,
// grounded on Black-And-White-Club-frolf-bot's prometheus/client_golang
// usage (the richest example of that dependency in the pack) scaled down
// to the three gauges/counters this domain actually needs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder wraps the registered collectors and implements
// internal/roomactor.Metrics plus the registry-level gauge update.
type Recorder struct {
	roomsActive       prometheus.Gauge
	subscribersActive *prometheus.GaugeVec
	commandsTotal     *prometheus.CounterVec
}

// New registers every collector against reg. Pass prometheus.NewRegistry()
// in production, or a fresh registry per test to avoid collector-already-
// registered panics across parallel tests.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		roomsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "openword_rooms_active",
			Help: "Number of rooms currently retained by the registry.",
		}),
		subscribersActive: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "openword_subscribers_active",
			Help: "Number of live push subscribers, per room code.",
		}, []string{"room_code"}),
		commandsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "openword_commands_total",
			Help: "Room actor commands processed, labeled by command and outcome.",
		}, []string{"command", "outcome"}),
	}
	return r
}

// ObserveCommand implements internal/roomactor.Metrics.
func (r *Recorder) ObserveCommand(_, command, outcome string) {
	r.commandsTotal.WithLabelValues(command, outcome).Inc()
}

// SetSubscribers implements internal/roomactor.Metrics.
func (r *Recorder) SetSubscribers(roomCode string, count int) {
	r.subscribersActive.WithLabelValues(roomCode).Set(float64(count))
}

// SetRoomsActive is called by the registry whenever a room is created or
// reaped.
func (r *Recorder) SetRoomsActive(count int) {
	r.roomsActive.Set(float64(count))
}
