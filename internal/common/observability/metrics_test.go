package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordsJobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := New("crust-score-test", reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	ctx, span := obs.StartSpan(context.Background(), "calculate-crust-score")
	obs.RecordJobProcessed(ctx, "calculate-crust-score", "completed")
	obs.RecordJobDuration(ctx, "calculate-crust-score", 12*time.Millisecond, "completed")
	span.End()

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "jobs_processed")
	assert.Contains(t, joined, "jobs_duration")
}

func TestObservability_NilIsNoOp(t *testing.T) {
	var obs *Observability
	ctx, span := obs.StartSpan(context.Background(), "noop")
	defer span.End()

	assert.NotPanics(t, func() {
		obs.RecordJobProcessed(ctx, "t", "completed")
		obs.RecordJobDuration(ctx, "t", time.Second, "completed")
	})
	assert.NoError(t, obs.Shutdown(ctx))
}
