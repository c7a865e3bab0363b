package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	AutomationActionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_automation_actions_total",
			Help: "Total number of automation actions by kind.",
		},
		[]string{"action"},
	)
	CallsExecutedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_calls_executed_total",
			Help: "Total number of executed interview calls by result.",
		},
		[]string{"result"},
	)
	CallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_call_duration_seconds",
			Help:    "Duration of each interview call execution in seconds.",
			Buckets: []float64{1, 5, 15, 60, 300, 900},
		},
	)
	RemindersSentCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_reminders_sent_total",
			Help: "Total number of interview reminders sent.",
		},
	)
	ScoringDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "engine_scoring_step_duration_seconds",
			Help:       "Duration of each step in the call execution pipeline.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step"},
	)
)

func StartMetricsServer(addr string) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(AutomationActionsCounter)
	prometheus.MustRegister(CallsExecutedCounter)
	prometheus.MustRegister(CallDuration)
	prometheus.MustRegister(RemindersSentCounter)
	prometheus.MustRegister(ScoringDuration)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(addr, nil))
	}()
}
