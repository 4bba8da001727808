package servicebus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqmeter/mqmeter/pkg/collector"
	"github.com/mqmeter/mqmeter/pkg/config"
	"github.com/mqmeter/mqmeter/pkg/fetch"
)

func fakeNamespace(t *testing.T, dailyTotals map[string][]int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/namespaces/prod-bus", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"name": "prod-bus", "sku": "Premium"})
	})

	mux.HandleFunc("/namespaces/prod-bus/queues", func(w http.ResponseWriter, r *http.Request) {
		items := make([]any, 0, len(dailyTotals))
		for _, name := range []string{"orders", "billing", "announce"} {
			if _, ok := dailyTotals[name]; ok {
				items = append(items, map[string]string{"name": name})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"page": 1, "page_count": 1, "items": items,
		})
	})

	mux.HandleFunc("/namespaces/prod-bus/queues/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/namespaces/prod-bus/queues/"):]
		name = name[:len(name)-len("/metrics/incoming-messages")]
		require.NotEmpty(t, r.URL.Query().Get("from"))
		require.NotEmpty(t, r.URL.Query().Get("to"))

		points := make([]map[string]any, 0)
		day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, total := range dailyTotals[name] {
			points = append(points, map[string]any{
				"timestamp": day.AddDate(0, 0, i),
				"total":     total,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"value": points})
	})

	return httptest.NewServer(mux)
}

func newCollector(srv *httptest.Server, prefix string) *Collector {
	cfg := config.ServiceBusConfig{ManagementURL: srv.URL, Namespace: "prod-bus"}
	return New(cfg, fetch.NewClient(nil), prefix)
}

func testWindow() collector.Window {
	return collector.Window{
		Start: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 1, 0, 0, 0, time.UTC),
	}
}

func TestMeasureReportsPeakDailyVolume(t *testing.T) {
	srv := fakeNamespace(t, map[string][]int64{
		"orders": {100, 4200, 900},
	})
	defer srv.Close()

	c := newCollector(srv, "")

	sample, err := c.MeasureThroughput(context.Background(), "orders", testWindow())
	require.NoError(t, err)
	require.NotNil(t, sample.Throughput)
	assert.Equal(t, int64(4200), *sample.Throughput, "throughput is the busiest single day")
	assert.Equal(t, "prod-bus", sample.Scope)
}

func TestMeasureEmptySeries(t *testing.T) {
	srv := fakeNamespace(t, map[string][]int64{
		"announce": {},
	})
	defer srv.Close()

	c := newCollector(srv, "")

	sample, err := c.MeasureThroughput(context.Background(), "announce", testWindow())
	require.NoError(t, err)
	assert.True(t, sample.NoDataOrSendOnly)
	assert.Nil(t, sample.Throughput)
}

func TestDiscoverQueues(t *testing.T) {
	srv := fakeNamespace(t, map[string][]int64{
		"orders":  {1},
		"billing": {2},
	})
	defer srv.Close()

	c := newCollector(srv, "")
	queues, err := c.DiscoverQueues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "billing"}, queues)
}

func TestDiscoverQueuesPrefix(t *testing.T) {
	srv := fakeNamespace(t, map[string][]int64{
		"orders":  {1},
		"billing": {2},
	})
	defer srv.Close()

	c := newCollector(srv, "bil")
	queues, err := c.DiscoverQueues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"billing"}, queues)
}

func TestDescribeMethod(t *testing.T) {
	srv := fakeNamespace(t, nil)
	defer srv.Close()

	c := newCollector(srv, "")
	method, err := c.DescribeMethod(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ServiceBus namespace prod-bus (Premium), 30-day peak daily volume", method)
}

// The effective window is pinned to one day no matter how long the tool
// actually sampled for.
func TestEffectiveWindow(t *testing.T) {
	c := newCollector(httptest.NewUnstartedServer(nil), "")
	assert.Equal(t, 24*time.Hour, c.EffectiveWindow(testWindow()))
	assert.Equal(t, "Namespace", c.ScopeType())
}
