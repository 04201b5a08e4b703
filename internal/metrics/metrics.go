// Package metrics holds the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QRScans counts QR resolution attempts by outcome.
	QRScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eas_qr_scans_total",
		Help: "QR token resolution attempts by outcome.",
	}, []string{"outcome"})

	// Submissions counts attendance submissions by result code.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eas_attendance_submissions_total",
		Help: "Attendance submission attempts by result.",
	}, []string{"result"})

	// AnalyticsRecomputes counts rollup recomputations.
	AnalyticsRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eas_analytics_recomputes_total",
		Help: "Daily analytics recomputation runs.",
	})

	// FaceScores counts async face verification attempts by status.
	FaceScores = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eas_face_scores_total",
		Help: "Async face verification attempts by status.",
	}, []string{"status"})
)
