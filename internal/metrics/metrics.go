// Package metrics holds the Prometheus collectors shared by the server,
// the watcher and the analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handscan_analyses_total",
		Help: "Video analyses run, by outcome",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "handscan_stage_duration_seconds",
		Help:    "Time spent per pipeline stage",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"stage"})

	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handscan_frames_total",
		Help: "Sampled frames, by outcome",
	}, []string{"status"})

	UploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "handscan_uploads_total",
		Help: "Videos accepted through upload or the inbox watcher",
	})

	ActiveAnalyses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "handscan_active_analyses",
		Help: "Analyses currently running",
	})
)
