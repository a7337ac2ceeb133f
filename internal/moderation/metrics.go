package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	violationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwarden_violations_total",
			Help: "Lock violations detected, by category",
		},
		[]string{"category"},
	)

	warningsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatwarden_warnings_issued_total",
			Help: "Warnings issued",
		},
	)

	punishmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwarden_punishments_total",
			Help: "Punishments recorded, by type and source",
		},
		[]string{"type", "source"},
	)

	floodTriggersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatwarden_flood_triggers_total",
			Help: "Flood detector triggers",
		},
	)
)

func init() {
	prometheus.MustRegister(violationsTotal, warningsIssuedTotal, punishmentsTotal, floodTriggersTotal)
}

func recordViolation(category string) {
	violationsTotal.WithLabelValues(category).Inc()
}

func recordWarning() {
	warningsIssuedTotal.Inc()
}

func recordPunishment(punishmentType, source string) {
	punishmentsTotal.WithLabelValues(punishmentType, source).Inc()
}

func recordFloodTrigger() {
	floodTriggersTotal.Inc()
}
