package audit

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqmeter/mqmeter/pkg/collector"
	"github.com/mqmeter/mqmeter/pkg/report"
	"github.com/mqmeter/mqmeter/pkg/signing"
)

// fakeCollector measures synthetic queues without a broker behind it.
type fakeCollector struct {
	queues      []string
	throughputs map[string]int64
	method      string
	scopeType   string
	window      time.Duration

	discoverErr error
	measureErr  error

	concurrent    atomic.Int32
	maxConcurrent atomic.Int32
	measureDelay  time.Duration
}

func (f *fakeCollector) DiscoverQueues(ctx context.Context) ([]string, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return f.queues, nil
}

func (f *fakeCollector) MeasureThroughput(ctx context.Context, queue string, _ collector.Window) (report.QueueThroughputSample, error) {
	cur := f.concurrent.Add(1)
	defer f.concurrent.Add(-1)
	for {
		prev := f.maxConcurrent.Load()
		if cur <= prev || f.maxConcurrent.CompareAndSwap(prev, cur) {
			break
		}
	}
	if f.measureDelay > 0 {
		select {
		case <-time.After(f.measureDelay):
		case <-ctx.Done():
			return report.QueueThroughputSample{}, ctx.Err()
		}
	}
	if f.measureErr != nil {
		return report.QueueThroughputSample{}, f.measureErr
	}
	v, ok := f.throughputs[queue]
	if !ok {
		return report.Unmeasured(queue), nil
	}
	return report.Measured(queue, v), nil
}

func (f *fakeCollector) DescribeMethod(ctx context.Context) (string, error) {
	return f.method, nil
}

func (f *fakeCollector) ScopeType() string { return f.scopeType }

// fakeWindowed additionally pins the effective measurement window.
type fakeWindowed struct{ *fakeCollector }

func (f fakeWindowed) EffectiveWindow(collector.Window) time.Duration { return f.window }

type fakeFactory struct {
	c   collector.Collector
	err error
}

func (f fakeFactory) Create(collector.Transport) (collector.Collector, error) {
	return f.c, f.err
}

func newRunner(c collector.Collector) *Runner {
	return &Runner{
		Customer:       "Acme",
		Transport:      collector.TransportRabbitMQ,
		Duration:       10 * time.Millisecond,
		ToolVersion:    "1.0.0-test",
		MaxConcurrency: 4,
		Factory:        fakeFactory{c: c},
	}
}

func TestRunProducesVerifiableReport(t *testing.T) {
	fake := &fakeCollector{
		queues:      []string{"orders", "billing", "announce"},
		throughputs: map[string]int64{"orders": 500, "billing": 25},
		method:      "fake broker v1",
		scopeType:   "VirtualHost",
	}
	r := newRunner(fake)

	signed, err := r.Run(context.Background())
	require.NoError(t, err)

	rep := signed.ReportData
	assert.Equal(t, "Acme", rep.CustomerName)
	assert.Equal(t, "rabbitmq", rep.MessageTransport)
	assert.Equal(t, "fake broker v1", rep.ReportMethod)
	assert.Equal(t, "VirtualHost", rep.ScopeType)
	assert.Equal(t, int64(525), rep.TotalThroughput)
	assert.Equal(t, int64(3), rep.TotalQueues)

	// Discovery order survives concurrent measurement.
	names := make([]string, 0, len(rep.Queues))
	for _, q := range rep.Queues {
		names = append(names, q.QueueName)
	}
	assert.Equal(t, fake.queues, names)

	assert.NoError(t, signing.Verify(*signed), "a produced report must verify out of the box")
}

func TestRunAppliesIgnoreList(t *testing.T) {
	fake := &fakeCollector{
		queues:      []string{"orders", "system.heartbeat"},
		throughputs: map[string]int64{"orders": 10, "system.heartbeat": 9999},
		method:      "fake",
	}
	r := newRunner(fake)
	r.IgnoreList = []string{"system.*"}

	signed, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), signed.ReportData.TotalThroughput)
	assert.Equal(t, []string{"system.heartbeat"}, signed.ReportData.IgnoredQueues)
}

func TestRunHonorsConcurrencyLimit(t *testing.T) {
	fake := &fakeCollector{
		queues:       []string{"a", "b", "c", "d", "e", "f", "g", "h"},
		method:       "fake",
		measureDelay: 5 * time.Millisecond,
	}
	r := newRunner(fake)
	r.MaxConcurrency = 2
	r.Duration = 0

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, fake.maxConcurrent.Load(), int32(2))
}

func TestRunEffectiveWindowOverride(t *testing.T) {
	fake := fakeWindowed{&fakeCollector{
		queues: []string{"orders"},
		method: "fake",
		window: 24 * time.Hour,
	}}
	r := newRunner(fake)

	signed, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.Duration(24*time.Hour), signed.ReportData.ReportDuration)
}

func TestRunCanceledDuringWindow(t *testing.T) {
	fake := &fakeCollector{queues: []string{"orders"}, method: "fake"}
	r := newRunner(fake)
	r.Duration = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	signed, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, signed, "a canceled run must not produce an artifact")
}

func TestRunMeasureFailureAbortsRun(t *testing.T) {
	fake := &fakeCollector{
		queues:     []string{"orders", "billing"},
		method:     "fake",
		measureErr: fmt.Errorf("broker went away"),
	}
	r := newRunner(fake)
	r.Duration = 0

	signed, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker went away")
	assert.Nil(t, signed)
}

func TestRunDiscoveryFailure(t *testing.T) {
	fake := &fakeCollector{
		method:      "fake",
		discoverErr: collector.NewEnvironmentError("stats disabled", "enable stats"),
	}
	r := newRunner(fake)

	signed, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, signed)

	var envErr *collector.EnvironmentError
	assert.ErrorAs(t, err, &envErr)
}

func TestRunFactoryFailure(t *testing.T) {
	r := newRunner(nil)
	r.Factory = fakeFactory{err: fmt.Errorf("unsupported transport")}

	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestRunUnmeasuredQueuesStillCounted(t *testing.T) {
	fake := &fakeCollector{
		queues:      []string{"orders", "send-only"},
		throughputs: map[string]int64{"orders": 7},
		method:      "fake",
	}
	r := newRunner(fake)

	signed, err := r.Run(context.Background())
	require.NoError(t, err)

	rep := signed.ReportData
	assert.Equal(t, int64(2), rep.TotalQueues)
	require.Len(t, rep.Queues, 2)
	assert.True(t, rep.Queues[1].NoDataOrSendOnly)
	assert.Nil(t, rep.Queues[1].Throughput)
}
