package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"secwaf/waf"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics(t *testing.T) {
	// Arrange
	assert := assert.New(t)
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	// Act
	m.RequestEvaluated(waf.Block, 2*time.Millisecond)
	m.RequestEvaluated(waf.Block, time.Millisecond)
	m.RequestEvaluated(waf.Pass, time.Millisecond)
	m.RuleMatched(1203, true)
	m.ProcessingError(waf.BodyStage)
	m.MultipartIrregularity("lf_line")
	m.MultipartIrregularity("lf_line")

	// Assert
	assert.Equal(2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("Block")))
	assert.Equal(1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("Pass")))
	assert.Equal(1.0, testutil.ToFloat64(m.ruleMatchesTotal.WithLabelValues("1203", "true")))
	assert.Equal(1.0, testutil.ToFloat64(m.processingErrorsTotal.WithLabelValues("body")))
	assert.Equal(2.0, testutil.ToFloat64(m.multipartIrregular.WithLabelValues("lf_line")))
	_, err := reg.Gather()
	assert.Nil(err)
}

func TestHandler(t *testing.T) {
	// Arrange
	m := NewPrometheusMetrics(nil)
	m.RuleMatched(5, false)
	rec := httptest.NewRecorder()

	// Act
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	// Assert
	if !strings.Contains(rec.Body.String(), `secwaf_rule_matches_total{builtin="false",rule_id="5"} 1`) {
		t.Fatalf("Unexpected metrics output: %s", rec.Body.String())
	}
}
