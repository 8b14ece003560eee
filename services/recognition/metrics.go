package recognition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var recognitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "locallift_recognitions_total",
	Help: "Champion recognitions recorded, by event type.",
}, []string{"type"})
