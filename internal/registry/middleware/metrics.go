package middleware

import (
	"context"
	"time"

	"github.com/adamscao/certregistry/internal/models"
	"github.com/adamscao/certregistry/internal/registry"
	"github.com/go-kit/kit/metrics"
)

var _ registry.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     registry.Service
}

// MetricsMiddleware instruments the registry service by tracking request count and latency.
func MetricsMiddleware(svc registry.Service, counter metrics.Counter, latency metrics.Histogram) registry.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (ms *metricsMiddleware) Issue(ctx context.Context, name, course, date string) (models.Certificate, error) {
	defer func(begin time.Time) {
		ms.counter.With("method", "issue_certificate").Add(1)
		ms.latency.With("method", "issue_certificate").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.Issue(ctx, name, course, date)
}

func (ms *metricsMiddleware) Verify(ctx context.Context, id string) (bool, error) {
	defer func(begin time.Time) {
		ms.counter.With("method", "verify_certificate").Add(1)
		ms.latency.With("method", "verify_certificate").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.Verify(ctx, id)
}

func (ms *metricsMiddleware) Revoke(ctx context.Context, id string) (models.Certificate, error) {
	defer func(begin time.Time) {
		ms.counter.With("method", "revoke_certificate").Add(1)
		ms.latency.With("method", "revoke_certificate").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.Revoke(ctx, id)
}

func (ms *metricsMiddleware) ListAll(ctx context.Context) ([]models.Certificate, error) {
	defer func(begin time.Time) {
		ms.counter.With("method", "get_all_certificates").Add(1)
		ms.latency.With("method", "get_all_certificates").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.ListAll(ctx)
}

func (ms *metricsMiddleware) Get(ctx context.Context, id string) (models.Certificate, bool, error) {
	defer func(begin time.Time) {
		ms.counter.With("method", "get_certificate").Add(1)
		ms.latency.With("method", "get_certificate").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.Get(ctx, id)
}
