package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics groups every instrument the backend emits. All Record helpers
// accept a nil receiver so optional wiring can pass metrics through without
// guarding every call site.
type AppMetrics struct {
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	AuthzDecisionsTotal CounterVec
	TokenRejectedTotal  CounterVec

	PatentWritesTotal   CounterVec
	PatentReadsTotal    CounterVec
	ValidationFailTotal CounterVec

	ImportBatchesTotal    CounterVec
	ImportFamiliesTotal   CounterVec
	ImportUnresolvedTotal CounterVec
	ImportBatchDuration   HistogramVec

	EventsPublishedTotal CounterVec

	CacheHitsTotal CounterVec
	CacheMissTotal CounterVec

	HealthCheckStatus GaugeVec
}

var (
	httpDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	importDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
)

// NewAppMetrics registers every instrument on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", httpDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.AuthzDecisionsTotal = collector.RegisterCounter("authz_decisions_total", "Authorization decisions", "role", "operation", "decision")
	m.TokenRejectedTotal = collector.RegisterCounter("auth_token_rejected_total", "Rejected bearer tokens", "reason")

	m.PatentWritesTotal = collector.RegisterCounter("patent_writes_total", "Patent aggregate writes", "operation", "result")
	m.PatentReadsTotal = collector.RegisterCounter("patent_reads_total", "Patent reads", "operation")
	m.ValidationFailTotal = collector.RegisterCounter("validation_failures_total", "Structural and referential validation failures", "rule")

	m.ImportBatchesTotal = collector.RegisterCounter("import_batches_total", "Spreadsheet import batches", "result")
	m.ImportFamiliesTotal = collector.RegisterCounter("import_families_total", "Families processed per import", "result")
	m.ImportUnresolvedTotal = collector.RegisterCounter("import_unresolved_total", "Cells the reconciler could not resolve", "field")
	m.ImportBatchDuration = collector.RegisterHistogram("import_batch_duration_seconds", "Import batch duration", importDurationBuckets)

	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Patent events published", "event_type", "result")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Component health (1=up, 0=down)", "component")

	return m
}

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest marks one request in flight and returns the matching
// decrement.
func TrackActiveRequest(m *AppMetrics, method string) func() {
	if m == nil {
		return func() {}
	}
	g := m.HTTPActiveRequests.WithLabelValues(method)
	g.Inc()
	return g.Dec
}

func RecordAuthzDecision(m *AppMetrics, role, operation string, allowed bool) {
	if m == nil {
		return
	}
	decision := "allow"
	if !allowed {
		decision = "deny"
	}
	m.AuthzDecisionsTotal.WithLabelValues(role, operation, decision).Inc()
}

func RecordTokenRejected(m *AppMetrics, reason string) {
	if m == nil {
		return
	}
	m.TokenRejectedTotal.WithLabelValues(reason).Inc()
}

func RecordPatentWrite(m *AppMetrics, operation, result string) {
	if m == nil {
		return
	}
	m.PatentWritesTotal.WithLabelValues(operation, result).Inc()
}

func RecordPatentRead(m *AppMetrics, operation string) {
	if m == nil {
		return
	}
	m.PatentReadsTotal.WithLabelValues(operation).Inc()
}

func RecordValidationFailure(m *AppMetrics, rule string) {
	if m == nil {
		return
	}
	m.ValidationFailTotal.WithLabelValues(rule).Inc()
}

func RecordImportBatch(m *AppMetrics, created, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if failed > 0 {
		result = "partial"
	}
	if created == 0 && failed > 0 {
		result = "failed"
	}
	m.ImportBatchesTotal.WithLabelValues(result).Inc()
	m.ImportFamiliesTotal.WithLabelValues("created").Add(float64(created))
	m.ImportFamiliesTotal.WithLabelValues("failed").Add(float64(failed))
	m.ImportBatchDuration.WithLabelValues().Observe(duration.Seconds())
}

func RecordImportUnresolved(m *AppMetrics, field string) {
	if m == nil {
		return
	}
	m.ImportUnresolvedTotal.WithLabelValues(field).Inc()
}

func RecordEventPublished(m *AppMetrics, eventType string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.EventsPublishedTotal.WithLabelValues(eventType, result).Inc()
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissTotal.WithLabelValues(cache).Inc()
	}
}

func SetComponentHealth(m *AppMetrics, component string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1.0
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}
