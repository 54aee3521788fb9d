package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memorybook_submissions_total",
			Help: "Memories stored, by whether a photo was attached.",
		},
		[]string{"photo"},
	)

	submissionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memorybook_submission_failures_total",
			Help: "Rejected or failed submissions, by stage (validation, blob, record).",
		},
		[]string{"stage"},
	)

	adminLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memorybook_admin_logins_total",
			Help: "Admin password checks, by result.",
		},
		[]string{"result"},
	)

	orphanedBlobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "memorybook_orphaned_blobs",
		Help: "Photos found by the last orphan scan that no memory references.",
	})
)
