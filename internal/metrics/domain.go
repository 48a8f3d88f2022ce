package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobTransitionsTotal counts job lifecycle transitions by target status.
	JobTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patch_job_transitions_total",
			Help: "Total number of patch job lifecycle transitions",
		},
		[]string{"to_status"},
	)

	// ScheduleRunsTotal counts schedule firings by outcome.
	ScheduleRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patch_schedule_runs_total",
			Help: "Total number of patch schedule executions",
		},
		[]string{"result"},
	)

	// JobsGeneratedTotal counts jobs created by schedule firings.
	JobsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "patch_jobs_generated_total",
			Help: "Total number of patch jobs generated by schedules",
		},
	)
)
