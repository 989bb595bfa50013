// Package metrics exposes Prometheus collectors for the matchmaking core.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Label values for the matches_created_total counter.
const (
	PartnerHuman = "human"
	PartnerAI    = "ai"

	ViaImmediate = "immediate"
	ViaTimeout   = "timeout"
)

// Metrics bundles the counters the engine and router record into. A nil
// *Metrics is valid and records nothing, so tests can skip registration.
type Metrics struct {
	matchesCreated *prometheus.CounterVec
	aiTurns        prometheus.Counter
	aiTurnFailures prometheus.Counter
}

// New registers the core collectors against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		matchesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imposterchat",
			Subsystem: "matchmaking",
			Name:      "matches_created_total",
			Help:      "Matches created, by partner type and pairing path.",
		}, []string{"partner", "via"}),
		aiTurns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imposterchat",
			Subsystem: "ai",
			Name:      "turns_total",
			Help:      "AI turn generations attempted.",
		}),
		aiTurnFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imposterchat",
			Subsystem: "ai",
			Name:      "turn_failures_total",
			Help:      "AI turn generations that returned an error.",
		}),
	}
	reg.MustRegister(m.matchesCreated, m.aiTurns, m.aiTurnFailures)
	return m
}

// MatchCreated records one created match.
func (m *Metrics) MatchCreated(partner, via string) {
	if m == nil {
		return
	}
	m.matchesCreated.WithLabelValues(partner, via).Inc()
}

// AITurn records one turn generation attempt and whether it failed.
func (m *Metrics) AITurn(failed bool) {
	if m == nil {
		return
	}
	m.aiTurns.Inc()
	if failed {
		m.aiTurnFailures.Inc()
	}
}

// RegisterGauges exposes the engine's observability counters as gauges read
// at scrape time.
func RegisterGauges(reg prometheus.Registerer, queueDepth, activeMatches func() float64) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "imposterchat",
			Subsystem: "matchmaking",
			Name:      "queue_depth",
			Help:      "Users currently waiting to be paired.",
		}, queueDepth),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "imposterchat",
			Subsystem: "matchmaking",
			Name:      "active_matches",
			Help:      "Matches currently live.",
		}, activeMatches),
	)
}
