package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestProgressReporterLogsQuarters(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := newProgressReporter("job-1", zap.New(core))
	defer p.done()

	for i := 1; i <= 100; i++ {
		p.report(float64(i) / 100)
	}

	entries := logs.FilterMessage("extraction progress").All()
	var percents []int64
	for _, e := range entries {
		percents = append(percents, e.ContextMap()["percent"].(int64))
	}
	assert.Equal(t, []int64{25, 50, 75, 100}, percents)
}

func TestProgressReporterJumpLogsOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := newProgressReporter("job-2", zap.New(core))
	defer p.done()

	p.report(0.1)
	p.report(0.8)
	p.report(0.6)
	p.report(1)

	assert.Equal(t, 2, logs.FilterMessage("extraction progress").Len())
	assert.Equal(t, 1.0, p.last)
}
