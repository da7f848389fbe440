package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tasklist_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tasklist_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tasklist_store_operations_total",
		Help: "Count of resource store operations by op and result",
	}, []string{"op", "result"})

	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tasklist_tool_calls_total",
		Help: "Count of MCP tool invocations by tool and result",
	}, []string{"tool", "result"})

	authFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasklist_auth_failures_total",
		Help: "Count of rejected credentials at the authorization gate",
	})

	storedItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tasklist_items",
		Help: "Total number of stored items across all tenants",
	})

	tenantScopes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tasklist_tenant_scopes",
		Help: "Number of tenant scopes holding a collection",
	})

	backendUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tasklist_backend_up",
		Help: "Whether the persistence backend answered the last ping (1/0)",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveStoreOp counts one store operation with its result
// (ok, miss, invalid, error).
func ObserveStoreOp(op, result string) {
	storeOperations.WithLabelValues(op, result).Inc()
}

// ObserveToolCall counts one MCP tool invocation.
func ObserveToolCall(tool, result string) {
	toolCalls.WithLabelValues(tool, result).Inc()
}

// ObserveAuthFailure counts one rejected credential.
func ObserveAuthFailure() {
	authFailures.Inc()
}

// SetStoredItems sets the item count gauge.
func SetStoredItems(count int) {
	if count < 0 {
		count = 0
	}
	storedItems.Set(float64(count))
}

// SetTenantScopes sets the tenant scope count gauge.
func SetTenantScopes(count int) {
	if count < 0 {
		count = 0
	}
	tenantScopes.Set(float64(count))
}

// SetBackendUp records the last backend ping result.
func SetBackendUp(up bool) {
	if up {
		backendUp.Set(1)
	} else {
		backendUp.Set(0)
	}
}
