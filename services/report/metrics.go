package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reportsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "locallift_weekly_reports_total",
	Help: "Weekly badge report emails submitted, by outcome.",
}, []string{"status"})
