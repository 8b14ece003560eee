package achievement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var achievementsAwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "locallift_achievements_awarded_total",
	Help: "Automatic achievements appended to the achievement log.",
}, []string{"type"})
