package leaderboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "locallift_leaderboard_cache_lookups_total",
	Help: "Leaderboard cache lookups by result.",
}, []string{"result"})
