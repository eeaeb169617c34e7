package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "showcase"

// StartPreviewSpan starts a span for building a project's preview document.
func StartPreviewSpan(ctx context.Context, projectID string, version int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "preview",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.Int("project.version", version),
		),
	)
}

// StartUploadSpan starts a span for storing an uploaded project file.
func StartUploadSpan(ctx context.Context, projectID, fileName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "upload",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("file.name", fileName),
		),
	)
}

// StartReconcileSpan starts a span for copying fallback data into the primary store.
func StartReconcileSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "reconcile")
}
