package badge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locallift_badge_evaluations_total",
		Help: "Weekly badge evaluations by outcome.",
	}, []string{"outcome"})

	recordsInsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "locallift_badge_records_inserted_total",
		Help: "Badge history rows created.",
	})
)
