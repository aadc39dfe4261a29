package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStage(t *testing.T) {
	tests := []struct {
		name     string
		stage    string
		platform string
		status   string
	}{
		{"analysis success", "analysis", "", "success"},
		{"generate error", "generate", "newsletter", "error"},
		{"critique degraded", "critique", "twitter", "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(stageExecutionsTotal.WithLabelValues(tt.stage, tt.platform, tt.status))
			RecordStage(tt.stage, tt.platform, tt.status, 150*time.Millisecond)
			after := testutil.ToFloat64(stageExecutionsTotal.WithLabelValues(tt.stage, tt.platform, tt.status))
			assert.Equal(t, before+1, after)
		})
	}
}

func TestRecordLLMCallAndVerdict(t *testing.T) {
	RecordLLMCall("creative", "generate", "rate_limited", time.Second)
	assert.Greater(t, testutil.ToFloat64(llmCallsTotal.WithLabelValues("creative", "generate", "rate_limited")), 0.0)

	RecordVerdict("linkedin", "REVISE", "reviewed")
	assert.Greater(t, testutil.ToFloat64(critiqueVerdictsTotal.WithLabelValues("linkedin", "REVISE", "reviewed")), 0.0)
}

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues("partial"))
	RecordRun("partial", 3*time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues("partial")))
}

func TestInitTracer(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer(&buf)
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "stage.analysis")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "stage.analysis")
}
