package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/adamscao/certregistry/internal/models"
)

// maxIDAttempts bounds how many fresh ids Issue requests after a collision
const maxIDAttempts = 5

var (
	// ErrNotFound indicates that no certificate exists for the given id
	ErrNotFound = errors.New("certificate not found")

	// ErrConflict indicates that a certificate with the given id already exists
	ErrConflict = errors.New("certificate id already exists")

	// ErrIDExhausted indicates that no unused id could be generated
	ErrIDExhausted = errors.New("failed to generate a unique certificate id")
)

// Service is the certificate registry contract, fulfilled by Registry and
// the decorators in package middleware.
type Service interface {
	// Issue creates a new active certificate and returns a copy of it
	Issue(ctx context.Context, name, course, date string) (models.Certificate, error)

	// Verify reports whether the certificate exists and is not revoked
	Verify(ctx context.Context, id string) (bool, error)

	// Revoke marks the certificate as revoked, returning ErrNotFound for unknown ids
	Revoke(ctx context.Context, id string) (models.Certificate, error)

	// ListAll returns every stored certificate, revoked or not, in no guaranteed order
	ListAll(ctx context.Context) ([]models.Certificate, error)

	// Get returns the certificate for id, with false when it does not exist
	Get(ctx context.Context, id string) (models.Certificate, bool, error)
}

// Store persists certificates. Implementations may assume calls are serialized.
type Store interface {
	// Create stores a new certificate, returning ErrConflict if the id is taken
	Create(ctx context.Context, cert models.Certificate) error

	// Retrieve returns the certificate for id or ErrNotFound
	Retrieve(ctx context.Context, id string) (models.Certificate, error)

	// MarkRevoked sets the revoked flag and returns the updated certificate or ErrNotFound
	MarkRevoked(ctx context.Context, id string) (models.Certificate, error)

	// RetrieveAll returns all certificates
	RetrieveAll(ctx context.Context) ([]models.Certificate, error)
}

// AuditSink records mutating registry operations
type AuditSink interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

var _ Service = (*Registry)(nil)

// Registry is the certificate registry. A single mutex serializes every
// operation, so stores never observe concurrent calls.
type Registry struct {
	mu     sync.Mutex
	store  Store
	ids    IDProvider
	audit  AuditSink
	logger *slog.Logger
}

// Option configures optional Registry collaborators
type Option func(*Registry)

// WithAuditSink records issue and revoke operations to sink
func WithAuditSink(sink AuditSink) Option {
	return func(r *Registry) {
		r.audit = sink
	}
}

// WithLogger sets the logger used for non-fatal problems such as audit failures
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a new registry backed by store, drawing ids from ids
func New(store Store, ids IDProvider, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		ids:    ids,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Issue creates a new certificate with revoked set to false
func (r *Registry) Issue(ctx context.Context, name, course, date string) (models.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := r.ids.ID()
		if err != nil {
			return models.Certificate{}, fmt.Errorf("failed to generate certificate id: %w", err)
		}

		cert := models.Certificate{
			ID:     id,
			Name:   name,
			Course: course,
			Date:   date,
		}

		err = r.store.Create(ctx, cert)
		if errors.Is(err, ErrConflict) {
			r.logger.Warn("Generated certificate id already in use", slog.String("certificate_id", id))
			continue
		}
		if err != nil {
			return models.Certificate{}, fmt.Errorf("failed to store certificate: %w", err)
		}

		r.record(ctx, models.ActionCertIssue, id, nil)

		return cert, nil
	}

	return models.Certificate{}, ErrIDExhausted
}

// Verify reports whether id names an existing, non-revoked certificate.
// Unknown and revoked ids are indistinguishable to the caller.
func (r *Registry) Verify(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cert, ok, err := r.get(ctx, id)
	if err != nil {
		return false, err
	}

	return ok && !cert.Revoked, nil
}

// Revoke marks a certificate as revoked. Revoking twice is not an error.
func (r *Registry) Revoke(ctx context.Context, id string) (models.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cert, err := r.store.MarkRevoked(ctx, id)
	r.record(ctx, models.ActionCertRevoke, id, err)

	if errors.Is(err, ErrNotFound) {
		return models.Certificate{}, ErrNotFound
	}
	if err != nil {
		return models.Certificate{}, fmt.Errorf("failed to revoke certificate: %w", err)
	}

	return cert, nil
}

// ListAll returns every stored certificate
func (r *Registry) ListAll(ctx context.Context) ([]models.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	certs, err := r.store.RetrieveAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	if certs == nil {
		certs = []models.Certificate{}
	}

	return certs, nil
}

// Get returns the certificate for id. The boolean is false when it does not exist.
func (r *Registry) Get(ctx context.Context, id string) (models.Certificate, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.get(ctx, id)
}

func (r *Registry) get(ctx context.Context, id string) (models.Certificate, bool, error) {
	cert, err := r.store.Retrieve(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.Certificate{}, false, nil
	}
	if err != nil {
		return models.Certificate{}, false, fmt.Errorf("failed to get certificate: %w", err)
	}

	return cert, true, nil
}

// record writes an audit entry. Failures are logged, never returned.
func (r *Registry) record(ctx context.Context, action, id string, opErr error) {
	if r.audit == nil {
		return
	}

	entry := &models.AuditLog{
		Action:        action,
		CertificateID: id,
		Success:       opErr == nil,
	}
	if opErr != nil {
		entry.ErrorMsg = opErr.Error()
	}

	if err := r.audit.Create(ctx, entry); err != nil {
		r.logger.Error("Failed to record audit log",
			slog.String("action", action),
			slog.String("certificate_id", id),
			slog.Any("error", err),
		)
	}
}
