package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check-in outcome metrics. Labels stay low-cardinality: status is the
// attendance status on accept, reason is the rejection error code.
var (
	CheckinsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hadirku",
		Name:      "checkins_accepted_total",
		Help:      "Accepted check-ins by resulting attendance status.",
	}, []string{"status"})

	CheckinsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hadirku",
		Name:      "checkins_rejected_total",
		Help:      "Rejected check-ins by rejection reason.",
	}, []string{"reason"})

	CheckinDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hadirku",
		Name:      "checkin_duration_seconds",
		Help:      "End-to-end check-in handling time.",
		Buckets:   prometheus.DefBuckets,
	})

	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hadirku",
		Name:      "sessions_opened_total",
		Help:      "Attendance sessions opened.",
	})

	CodeRotations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hadirku",
		Name:      "code_rotations_total",
		Help:      "Session code rotations performed.",
	})
)
