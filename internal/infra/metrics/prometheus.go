package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_frames_jobs_total",
		Help: "Frame extraction jobs finished, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiapx_frames_stage_duration_seconds",
		Help:    "Duration of each frame extraction pipeline stage",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_frames_saved_total",
		Help: "Frames written as images across all jobs",
	})

	FramesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_frames_decoded_total",
		Help: "Frames decoded from source videos across all jobs",
	})

	ArchiveBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fiapx_frames_archive_bytes",
		Help:    "Size of produced frame archives",
		Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
	})

	ExtractionProgress = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fiapx_frames_extraction_progress_ratio",
		Help: "Fraction of the source consumed by in-flight extractions",
	}, []string{"job_id"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fiapx_frames_active_workers",
		Help: "Workers currently processing a job",
	})

	FailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_frames_failures_total",
		Help: "Failed attempts, by stage and whether they are retried",
	}, []string{"stage", "permanent"})
)
