package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-intake-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ==========================
// Retry
// ==========================

func fastRetry(n int) RetryConfig {
	return RetryConfig{MaxRetries: n, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int

	err := Retry(context.Background(), fastRetry(5), "postgres", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, func(attempt int, _ time.Duration, _ error) {
		retried = append(retried, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_GivesUp(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(3), "redis", func(context.Context) error {
		calls++
		return errors.New("dial tcp: i/o timeout")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "redis failed after 3 attempts")
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, RetryConfig{MaxRetries: 5, BaseDelay: time.Hour}, "zeebe", func(context.Context) error {
		return errors.New("unavailable")
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, IsTransient(errors.New("context deadline exceeded")))
	assert.False(t, IsTransient(errors.New("pq: password authentication failed")))
	assert.False(t, IsTransient(nil))
}

// ==========================
// Instrument
// ==========================

type fakeJobClient struct {
	worker.JobClient
}

func (fakeJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 { return nil }
func (fakeJobClient) NewFailJobCommand() commands.FailJobCommandStep1         { return nil }
func (fakeJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1   { return nil }

func createMockJob(key int64) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: key, Type: "instrument-test", Variables: "{}"}}
}

func TestInstrument_RecordsOutcome(t *testing.T) {
	const taskType = "instrument-test"

	tests := []struct {
		name    string
		handle  JobHandler
		outcome string
	}{
		{
			name:    "completed",
			handle:  func(_ context.Context, c worker.JobClient, _ entities.Job) { c.NewCompleteJobCommand() },
			outcome: metrics.OutcomeCompleted,
		},
		{
			name:    "thrown",
			handle:  func(_ context.Context, c worker.JobClient, _ entities.Job) { c.NewThrowErrorCommand() },
			outcome: metrics.OutcomeThrown,
		},
		{
			name:    "failed",
			handle:  func(_ context.Context, c worker.JobClient, _ entities.Job) { c.NewFailJobCommand() },
			outcome: metrics.OutcomeFailed,
		},
		{
			name:    "nothing sent",
			handle:  func(context.Context, worker.JobClient, entities.Job) {},
			outcome: metrics.OutcomeNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := func() float64 {
				if tt.outcome == metrics.OutcomeCompleted {
					return testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType))
				}
				return testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, tt.outcome))
			}
			before := counter()

			Instrument(taskType, nil, tt.handle)(fakeJobClient{}, createMockJob(1))

			assert.Equal(t, before+1, counter())
			assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
		})
	}
}

// fixedSpanTracer starts spans that all carry the same valid span context.
type fixedSpanTracer struct {
	noop.Tracer
	sc trace.SpanContext
}

func (f fixedSpanTracer) Start(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	ctx = trace.ContextWithSpanContext(ctx, f.sc)
	return ctx, trace.SpanFromContext(ctx)
}

type fixedSpanProvider struct {
	noop.TracerProvider
	tracer fixedSpanTracer
}

func (p fixedSpanProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.tracer }

func TestInstrument_HandlerRunsInSpanContext(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
	})
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(fixedSpanProvider{tracer: fixedSpanTracer{sc: sc}})
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var got trace.SpanContext
	var deadline bool
	Instrument("span-test", nil, func(ctx context.Context, c worker.JobClient, _ entities.Job) {
		got = trace.SpanContextFromContext(ctx)
		_, deadline = ctx.Deadline()
		c.NewCompleteJobCommand()
	})(fakeJobClient{}, createMockJob(2))

	require.True(t, got.IsValid())
	assert.Equal(t, sc.TraceID(), got.TraceID())
	assert.Equal(t, sc.SpanID(), got.SpanID())
	assert.False(t, deadline)
}
