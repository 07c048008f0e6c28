package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Predictions(t *testing.T) {
	m := New()

	m.ObservePrediction("Artist", 2*time.Millisecond)
	m.ObservePrediction("Artist", time.Millisecond)
	m.ObservePrediction("Company", time.Millisecond)
	m.ObservePredictionError("inference")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues("Artist")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("Company")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictionErrors.WithLabelValues("inference")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.inferenceDuration))
}

func TestMetrics_HTTPAndModel(t *testing.T) {
	m := New()

	m.ObserveHTTP("POST", "/predict", "200", 5*time.Millisecond)
	m.SetModel("Logistic Regression", "logistic_regression")

	expected := `
# HELP classifier_http_requests_total HTTP requests by method, route and status code.
# TYPE classifier_http_requests_total counter
classifier_http_requests_total{method="POST",path="/predict",status="200"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.httpRequests, strings.NewReader(expected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelInfo.WithLabelValues("Logistic Regression", "logistic_regression")))
}

func TestMetrics_RegistryGathers(t *testing.T) {
	m := New()
	m.ObservePrediction("Artist", time.Millisecond)

	families, err := m.Registry.Gather()

	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "classifier_predictions_total")
	assert.Contains(t, names, "go_goroutines")
}
