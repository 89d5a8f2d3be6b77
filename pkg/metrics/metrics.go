// Package metrics exposes the Prometheus metrics the service updates
// during operation:
//   - quickbid_bids_total{outcome}          – bids by outcome (accepted|pending|rejected|failed)
//   - quickbid_escrow_moved_total{direction} – minor units moved (locked|released)
//   - quickbid_admin_actions_total{action}  – privileged actions by kind
//   - quickbid_finalizes_total{trigger}     – finalize runs by trigger (admin|timer|sweep|queue)
//   - quickbid_live_timers                  – countdown timers currently running (gauge)
//   - quickbid_ws_connections               – open gateway connections (gauge)
//
// All metrics are registered in init() and served by the HTTP handler
// mounted at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Bids = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickbid_bids_total",
			Help: "Bids processed, by outcome",
		},
		[]string{"outcome"},
	)

	EscrowMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickbid_escrow_moved_total",
			Help: "Escrow moved in minor currency units, by direction",
		},
		[]string{"direction"},
	)

	AdminActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickbid_admin_actions_total",
			Help: "Privileged actions executed, by action",
		},
		[]string{"action"},
	)

	Finalizes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickbid_finalizes_total",
			Help: "Finalize invocations, by trigger",
		},
		[]string{"trigger"},
	)

	LiveTimers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickbid_live_timers",
			Help: "Countdown timers currently running",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickbid_ws_connections",
			Help: "Open gateway websocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Bids,
		EscrowMoved,
		AdminActions,
		Finalizes,
		LiveTimers,
		WSConnections,
	)
}
