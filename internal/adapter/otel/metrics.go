package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "showcase"

// Metrics holds the showcase metric instruments.
type Metrics struct {
	PreviewMerges   metric.Int64Counter
	DegradedFiles   metric.Int64Counter
	PreviewCacheHit metric.Int64Counter
	MergeDuration   metric.Float64Histogram
	ProjectWrites   metric.Int64Counter
}

// NewMetrics creates all metric instruments on mp, or on the global meter
// provider when mp is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.PreviewMerges, err = meter.Int64Counter("showcase.preview.merges",
		metric.WithDescription("Number of preview documents assembled"))
	if err != nil {
		return nil, err
	}

	m.DegradedFiles, err = meter.Int64Counter("showcase.preview.degraded_files",
		metric.WithDescription("Number of files replaced by a load-failure placeholder"))
	if err != nil {
		return nil, err
	}

	m.PreviewCacheHit, err = meter.Int64Counter("showcase.preview.cache_hits",
		metric.WithDescription("Number of preview documents served from cache"))
	if err != nil {
		return nil, err
	}

	m.MergeDuration, err = meter.Float64Histogram("showcase.preview.merge_duration_seconds",
		metric.WithDescription("Time spent loading and assembling a preview"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.ProjectWrites, err = meter.Int64Counter("showcase.projects.writes",
		metric.WithDescription("Number of project create, update, toggle and delete operations"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordMerge records one assembled preview. A nil receiver records nothing.
func (m *Metrics) RecordMerge(ctx context.Context, seconds float64, degradedFiles int, renderable bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("renderable", renderable), attribute.Bool("degraded", degradedFiles > 0))
	m.PreviewMerges.Add(ctx, 1, attrs)
	m.MergeDuration.Record(ctx, seconds, attrs)
	if degradedFiles > 0 {
		m.DegradedFiles.Add(ctx, int64(degradedFiles))
	}
}

// RecordCacheHit records a preview served from cache.
func (m *Metrics) RecordCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.PreviewCacheHit.Add(ctx, 1)
}

// RecordProjectWrite records a project mutation.
func (m *Metrics) RecordProjectWrite(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.ProjectWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}
