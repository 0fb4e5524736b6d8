package render

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_render_submissions_total",
			Help: "Scene submissions by provider and outcome.",
		},
		[]string{"provider", "status"},
	)
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_render_polls_total",
			Help: "Poll calls issued per provider.",
		},
		[]string{"provider"},
	)
	jobsTerminal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_render_jobs_terminal_total",
			Help: "Render jobs reaching a final observed state, by provider and state.",
		},
		[]string{"provider", "state"},
	)
	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelforge_render_job_duration_seconds",
			Help:    "Wall time from submission to final observed state.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~68min
		},
		[]string{"provider"},
	)
)
