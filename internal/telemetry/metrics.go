package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all the metric instruments for the blog engine
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
	// compilation
	BlogsCompiledTotal  metric.Int64Counter
	CompileFailures     metric.Int64Counter
	CompileDuration     metric.Float64Histogram
	ImagesInjectedTotal metric.Int64Counter
	RecompileRuns       metric.Int64Counter
	// import
	SourcesImportedTotal metric.Int64Counter
	// limiter
	RateLimitHitsTotal metric.Int64Counter
	// middlewares
	AuthWorkDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	counters := []struct {
		dst              *metric.Int64Counter
		name, desc, unit string
	}{
		{&m.HTTPRequestsTotal, "http_requests", "Total number of HTTP requests", "{request}"},
		{&m.BlogsCompiledTotal, "blogs_compiled", "Number of markdown documents compiled", "{blog}"},
		{&m.CompileFailures, "compile_failures", "Number of documents rejected by the compiler", "{blog}"},
		{&m.ImagesInjectedTotal, "images_injected", "Number of image references rewritten", "{image}"},
		{&m.RecompileRuns, "recompile_runs", "Number of bulk recompilations", "{run}"},
		{&m.SourcesImportedTotal, "sources_imported", "Number of markdown sources imported", "{source}"},
		{&m.RateLimitHitsTotal, "rate_limit_hits", "Number of rate limiter blocked requests", "{request}"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit)); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", c.name, err)
		}
	}

	histograms := []struct {
		dst              *metric.Float64Histogram
		name, desc, unit string
	}{
		{&m.HTTPRequestDuration, "http_request_duration", "HTTP request latency in ms", "ms"},
		{&m.CompileDuration, "compile_duration", "Time spent compiling one document in ms", "ms"},
		{&m.AuthWorkDuration, "auth_work_duration", "real time spent on Bcrypt", "s"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit(h.unit)); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", h.name, err)
		}
	}

	m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests: %w", err)
	}

	return &m, nil
}
