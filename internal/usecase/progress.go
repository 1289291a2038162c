package usecase

import (
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/metrics"
	"go.uber.org/zap"
)

const progressLogStep = 0.25

// progressReporter exports extraction progress as a gauge and logs every
// quarter of the way through.
type progressReporter struct {
	jobID    string
	logger   *zap.Logger
	nextLog  float64
	last     float64
	finished bool
}

func newProgressReporter(jobID string, logger *zap.Logger) *progressReporter {
	return &progressReporter{jobID: jobID, logger: logger, nextLog: progressLogStep}
}

func (p *progressReporter) report(fraction float64) {
	if fraction < p.last {
		fraction = p.last
	}
	p.last = fraction
	metrics.ExtractionProgress.WithLabelValues(p.jobID).Set(fraction)

	if fraction < p.nextLog {
		return
	}
	p.logger.Info("extraction progress", zap.Int("percent", int(fraction*100)))
	for p.nextLog <= fraction {
		p.nextLog += progressLogStep
	}
}

func (p *progressReporter) done() {
	if p.finished {
		return
	}
	p.finished = true
	metrics.ExtractionProgress.DeleteLabelValues(p.jobID)
}
