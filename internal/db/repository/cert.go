package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adamscao/certregistry/internal/models"
	"github.com/adamscao/certregistry/internal/registry"
	"github.com/mattn/go-sqlite3"
)

var _ registry.Store = (*CertRepository)(nil)

// CertRepository handles certificate record data access
type CertRepository struct {
	db *sql.DB
}

// NewCertRepository creates a new certificate repository
func NewCertRepository(db *sql.DB) *CertRepository {
	return &CertRepository{db: db}
}

// Create creates a new certificate record
func (r *CertRepository) Create(ctx context.Context, cert models.Certificate) error {
	query := `
		INSERT INTO certificates (id, name, course, date, revoked)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		cert.ID,
		cert.Name,
		cert.Course,
		cert.Date,
		cert.Revoked,
	)
	if isUniqueViolation(err) {
		return registry.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create certificate record: %w", err)
	}

	return nil
}

// Retrieve retrieves a certificate by id
func (r *CertRepository) Retrieve(ctx context.Context, id string) (models.Certificate, error) {
	query := `
		SELECT id, name, course, date, revoked
		FROM certificates
		WHERE id = ?
	`

	var cert models.Certificate
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cert.ID,
		&cert.Name,
		&cert.Course,
		&cert.Date,
		&cert.Revoked,
	)

	if err == sql.ErrNoRows {
		return models.Certificate{}, registry.ErrNotFound
	}
	if err != nil {
		return models.Certificate{}, fmt.Errorf("failed to get certificate: %w", err)
	}

	return cert, nil
}

// MarkRevoked flags a certificate as revoked. The first revocation time is kept.
func (r *CertRepository) MarkRevoked(ctx context.Context, id string) (models.Certificate, error) {
	query := `
		UPDATE certificates
		SET revoked = 1, revoked_at = COALESCE(revoked_at, CURRENT_TIMESTAMP)
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return models.Certificate{}, fmt.Errorf("failed to revoke certificate: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return models.Certificate{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if count == 0 {
		return models.Certificate{}, registry.ErrNotFound
	}

	return r.Retrieve(ctx, id)
}

// RetrieveAll lists all certificates in issuance order
func (r *CertRepository) RetrieveAll(ctx context.Context) ([]models.Certificate, error) {
	query := `
		SELECT id, name, course, date, revoked
		FROM certificates
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	certs := []models.Certificate{}

	for rows.Next() {
		var cert models.Certificate
		err := rows.Scan(
			&cert.ID,
			&cert.Name,
			&cert.Course,
			&cert.Date,
			&cert.Revoked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}

		certs = append(certs, cert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate certificates: %w", err)
	}

	return certs, nil
}

// CountRevoked returns the number of revoked certificates
func (r *CertRepository) CountRevoked(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM certificates WHERE revoked = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count revoked certificates: %w", err)
	}

	return count, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
