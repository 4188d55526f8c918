package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torosent/chaosfire/internal/metrics"
	"github.com/torosent/chaosfire/internal/threshold"
)

func sampleStats() metrics.Stats {
	return metrics.Stats{
		Total:          100,
		Successes:      80,
		Failures:       20,
		RequestsPerSec: 50.0,
		Duration:       2 * time.Second,
		DurationMs:     2000,
		InjectedTotal:  25,
		Injections:     map[string]int64{"fault": 15, "latency": 10},
		InjectionsByStrategy: map[string]int64{
			"checkout-down": 15,
			"slow-db":       10,
		},
		StatusBuckets: map[string]map[string]int{
			metrics.SourceUpstream: {"200": 80, "500": 5},
			metrics.SourceInjected: {"FAULT": 15},
		},
		Errors: map[string]int{
			"*experiment.InjectedFaultError": 15,
			"*httpclient.HTTPError":          5,
		},
	}
}

func TestPrintReportBasic(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleStats())

	out := buf.String()
	assert.Contains(t, out, "Total Requests:    100")
	assert.Contains(t, out, "Successful:        80")
	assert.Contains(t, out, "P95:")
}

func TestPrintReportChaosSection(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleStats())

	out := buf.String()
	assert.Contains(t, out, "Chaos Injections:")
	assert.Contains(t, out, "Total:           25 (25.0% of requests)")
	assert.Contains(t, out, "    fault: 15")
	assert.Contains(t, out, "    slow-db: 10")
	assert.Contains(t, out, "  injected FAULT: 15")
	assert.Contains(t, out, "  upstream 200: 80")
	assert.Contains(t, out, "  Injected fault: 15")
	assert.Contains(t, out, "  HTTP error response: 5")
	// errors sorted by count
	assert.Less(t, strings.Index(out, "Injected fault"), strings.Index(out, "HTTP error response"))
}

func TestPrintReportNoInjections(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, metrics.Stats{Total: 3, Successes: 3})

	out := buf.String()
	assert.Contains(t, out, "Chaos Injections:\n  None")
	assert.NotContains(t, out, "Status Buckets:")
	assert.NotContains(t, out, "Errors:")
}

func thresholdResults(t *testing.T) []threshold.Result {
	t.Helper()
	parsed, err := threshold.ParseMultiple([]string{"req_failed:rate < 0.5", "chaos_injected:count > 30"})
	require.NoError(t, err)
	return threshold.NewEvaluator(parsed).Evaluate(sampleStats())
}

func TestPrintThresholdResults(t *testing.T) {
	var buf bytes.Buffer
	PrintThresholdResults(&buf, thresholdResults(t))

	out := buf.String()
	assert.Contains(t, out, "Thresholds (1/2 passed):")
	assert.Contains(t, out, "[PASS] req_failed:rate < 0.5 (actual: 0.20)")
	assert.Contains(t, out, "[FAIL] chaos_injected:count > 30 (actual: 25.00)")

	buf.Reset()
	PrintThresholdResults(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSONReport(&buf, sampleStats(), thresholdResults(t)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.EqualValues(t, 100, doc["total"])
	assert.EqualValues(t, 25, doc["injected_total"])
	assert.Contains(t, doc, "injections_by_strategy")
	assert.Contains(t, doc, "status_buckets")

	thresholds, ok := doc["thresholds"].(map[string]any)
	require.True(t, ok, "thresholds missing: %s", buf.String())
	assert.EqualValues(t, 2, thresholds["total"])
	assert.EqualValues(t, 1, thresholds["failed"])
}

func TestPrintJSONReportOmitsEmptyThresholds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSONReport(&buf, metrics.Stats{Total: 1}, nil))
	assert.NotContains(t, buf.String(), `"thresholds"`)
}
