package services

import "github.com/prometheus/client_golang/prometheus"

var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantalytics_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
	hubBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantalytics_hub_batches_total",
			Help: "Hub batches received by result",
		},
		[]string{"result"},
	)
	hubSamples = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plantalytics_hub_samples_total",
			Help: "Environmental samples stored",
		},
	)
)

func init() {
	prometheus.MustRegister(loginAttempts, hubBatches, hubSamples)
}

// outcomeLabel turns an error into a low-cardinality metric label.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return "error"
}
