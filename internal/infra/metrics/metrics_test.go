package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerServesHealthAndMetrics(t *testing.T) {
	FramesSavedTotal.Add(3)
	ExtractionProgress.WithLabelValues("job-1").Set(0.5)
	defer ExtractionProgress.DeleteLabelValues("job-1")

	srv := httptest.NewServer(NewHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "fiapx_frames_saved_total")
	assert.Contains(t, string(body), `fiapx_frames_extraction_progress_ratio{job_id="job-1"} 0.5`)
}

func TestFailuresCounterLabels(t *testing.T) {
	counter := FailuresTotal.WithLabelValues("extraction", "true")
	before := counterValue(t, counter)
	counter.Inc()
	assert.Equal(t, before+1, counterValue(t, counter))
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
