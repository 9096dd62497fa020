package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(mutationsTotal, pollsTotal, analysisOutcomesTotal, notificationsTotal) }

var mutationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mutations_total",
		Help: "Mutations by intent and result (ok | rejected | failed).",
	},
	[]string{"intent", "result"},
)

var pollsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "polls_total",
		Help: "Background polls by target and result.",
	},
	[]string{"target", "result"},
)

var analysisOutcomesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "analysis_outcomes_total",
		Help: "Observed analysis outcomes after a trigger.",
	},
	[]string{"outcome"}, // 'completed', 'filtered', 'failed', 'not_observed', 'trigger_failed'
)

var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Out-of-band operator notifications by result.",
	},
	[]string{"result"},
)

func IncMutation(intent, result string) {
	mutationsTotal.WithLabelValues(norm(intent), norm(result)).Inc()
}

func IncPoll(target, result string) {
	pollsTotal.WithLabelValues(norm(target), norm(result)).Inc()
}

func IncAnalysisOutcome(outcome string) {
	analysisOutcomesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncNotification(result string) {
	notificationsTotal.WithLabelValues(norm(result)).Inc()
}
