package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStage(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveStage("tokenizer", 20*time.Millisecond, 1000, 48213)
	m.ObserveStage("tokenizer", 10*time.Millisecond, 900, 40000)

	assert.Equal(t, 900.0, testutil.ToFloat64(m.StageRecords.WithLabelValues("tokenizer", KindIn)))
	assert.Equal(t, 40000.0, testutil.ToFloat64(m.StageRecords.WithLabelValues("tokenizer", KindOut)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestObserveExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveExport("redis", time.Millisecond, nil)
	m.ObserveExport("redis", time.Millisecond, errors.New("boom"))
	m.ObserveExport("csv", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportTotal.WithLabelValues("redis", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportTotal.WithLabelValues("redis", "error")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.ExportTotal))
}

func TestNewMux_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.VocabularySize.Set(412)

	rec := httptest.NewRecorder()
	NewMux(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "pipeline_vocabulary_size 412"))
}
