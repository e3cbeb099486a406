package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/adamscao/certregistry/internal/models"
	"github.com/adamscao/certregistry/internal/registry"
)

var _ registry.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    registry.Service
}

// LoggingMiddleware adds logging facilities to the registry service.
func LoggingMiddleware(svc registry.Service, logger *slog.Logger) registry.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Issue(ctx context.Context, name, course, date string) (cert models.Certificate, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("certificate",
				slog.String("id", cert.ID),
				slog.String("course", course),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Issue certificate failed", args...)
			return
		}
		lm.logger.Info("Issue certificate completed successfully", args...)
	}(time.Now())

	return lm.svc.Issue(ctx, name, course, date)
}

func (lm *loggingMiddleware) Verify(ctx context.Context, id string) (valid bool, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("certificate_id", id),
			slog.Bool("valid", valid),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Verify certificate failed", args...)
			return
		}
		lm.logger.Info("Verify certificate completed successfully", args...)
	}(time.Now())

	return lm.svc.Verify(ctx, id)
}

func (lm *loggingMiddleware) Revoke(ctx context.Context, id string) (cert models.Certificate, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("certificate_id", id),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Revoke certificate failed", args...)
			return
		}
		lm.logger.Info("Revoke certificate completed successfully", args...)
	}(time.Now())

	return lm.svc.Revoke(ctx, id)
}

func (lm *loggingMiddleware) ListAll(ctx context.Context) (certs []models.Certificate, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("total", len(certs)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List certificates failed", args...)
			return
		}
		lm.logger.Info("List certificates completed successfully", args...)
	}(time.Now())

	return lm.svc.ListAll(ctx)
}

func (lm *loggingMiddleware) Get(ctx context.Context, id string) (cert models.Certificate, found bool, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("certificate_id", id),
			slog.Bool("found", found),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("View certificate failed", args...)
			return
		}
		lm.logger.Info("View certificate completed successfully", args...)
	}(time.Now())

	return lm.svc.Get(ctx, id)
}
