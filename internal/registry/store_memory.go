package registry

import (
	"context"

	"github.com/adamscao/certregistry/internal/models"
)

type memoryStore struct {
	certs map[string]models.Certificate
	order []string
}

// NewMemoryStore returns a volatile Store. It is not safe for concurrent use
// on its own; Registry serializes access to it.
func NewMemoryStore() Store {
	return &memoryStore{
		certs: make(map[string]models.Certificate),
	}
}

func (s *memoryStore) Create(_ context.Context, cert models.Certificate) error {
	if _, ok := s.certs[cert.ID]; ok {
		return ErrConflict
	}

	s.certs[cert.ID] = cert
	s.order = append(s.order, cert.ID)
	return nil
}

func (s *memoryStore) Retrieve(_ context.Context, id string) (models.Certificate, error) {
	cert, ok := s.certs[id]
	if !ok {
		return models.Certificate{}, ErrNotFound
	}
	return cert, nil
}

func (s *memoryStore) MarkRevoked(_ context.Context, id string) (models.Certificate, error) {
	cert, ok := s.certs[id]
	if !ok {
		return models.Certificate{}, ErrNotFound
	}

	cert.Revoked = true
	s.certs[id] = cert
	return cert, nil
}

func (s *memoryStore) RetrieveAll(_ context.Context) ([]models.Certificate, error) {
	certs := make([]models.Certificate, 0, len(s.order))
	for _, id := range s.order {
		certs = append(certs, s.certs[id])
	}
	return certs, nil
}
