package middleware

import (
	"context"

	"github.com/adamscao/certregistry/internal/models"
	"github.com/adamscao/certregistry/internal/registry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ registry.Service = (*tracingMiddleware)(nil)

type tracingMiddleware struct {
	tracer trace.Tracer
	svc    registry.Service
}

// TracingMiddleware returns a registry service that opens a span per operation.
func TracingMiddleware(svc registry.Service, tracer trace.Tracer) registry.Service {
	return &tracingMiddleware{tracer, svc}
}

func (tm *tracingMiddleware) Issue(ctx context.Context, name, course, date string) (models.Certificate, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_issue_certificate", trace.WithAttributes(
		attribute.String("course", course),
		attribute.String("date", date),
	))
	defer span.End()

	return tm.svc.Issue(ctx, name, course, date)
}

func (tm *tracingMiddleware) Verify(ctx context.Context, id string) (bool, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_verify_certificate", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.Verify(ctx, id)
}

func (tm *tracingMiddleware) Revoke(ctx context.Context, id string) (models.Certificate, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_revoke_certificate", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.Revoke(ctx, id)
}

func (tm *tracingMiddleware) ListAll(ctx context.Context) ([]models.Certificate, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_list_certificates")
	defer span.End()

	return tm.svc.ListAll(ctx)
}

func (tm *tracingMiddleware) Get(ctx context.Context, id string) (models.Certificate, bool, error) {
	ctx, span := tm.tracer.Start(ctx, "svc_view_certificate", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.Get(ctx, id)
}
