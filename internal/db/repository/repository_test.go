package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/adamscao/certregistry/internal/db"
	"github.com/adamscao/certregistry/internal/db/repository"
	"github.com/adamscao/certregistry/internal/models"
	"github.com/adamscao/certregistry/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "certs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func TestCertRepositoryCreate(t *testing.T) {
	repo := repository.NewCertRepository(openDB(t).DB)
	ctx := context.Background()

	cert := models.Certificate{ID: "CERT-1", Name: "Alice", Course: "Rust 101", Date: "2024-01-01"}

	cases := []struct {
		desc string
		cert models.Certificate
		err  error
	}{
		{desc: "create certificate", cert: cert, err: nil},
		{desc: "create certificate with existing id", cert: models.Certificate{ID: "CERT-1", Name: "Bob"}, err: registry.ErrConflict},
		{desc: "create certificate with empty fields", cert: models.Certificate{ID: "CERT-2"}, err: nil},
	}

	for _, tc := range cases {
		err := repo.Create(ctx, tc.cert)
		assert.True(t, errors.Is(err, tc.err), fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.err, err))
	}

	stored, err := repo.Retrieve(ctx, "CERT-1")
	require.NoError(t, err)
	assert.Equal(t, cert, stored, "conflicting create must not overwrite")
}

func TestCertRepositoryRetrieve(t *testing.T) {
	repo := repository.NewCertRepository(openDB(t).DB)
	ctx := context.Background()

	cert := models.Certificate{ID: "CERT-1", Name: "Alice", Course: "Rust 101", Date: "2024-01-01"}
	require.NoError(t, repo.Create(ctx, cert))

	got, err := repo.Retrieve(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, cert, got)

	_, err = repo.Retrieve(ctx, "CERT-404")
	assert.True(t, errors.Is(err, registry.ErrNotFound))
}

func TestCertRepositoryMarkRevoked(t *testing.T) {
	database := openDB(t)
	repo := repository.NewCertRepository(database.DB)
	ctx := context.Background()

	cert := models.Certificate{ID: "CERT-1", Name: "Alice", Course: "Rust 101", Date: "2024-01-01"}
	require.NoError(t, repo.Create(ctx, cert))

	revoked, err := repo.MarkRevoked(ctx, cert.ID)
	require.NoError(t, err)
	assert.True(t, revoked.Revoked)
	assert.Equal(t, cert.Name, revoked.Name)

	var firstRevokedAt time.Time
	require.NoError(t, database.QueryRow(`SELECT revoked_at FROM certificates WHERE id = ?`, cert.ID).Scan(&firstRevokedAt))

	again, err := repo.MarkRevoked(ctx, cert.ID)
	require.NoError(t, err)
	assert.True(t, again.Revoked)

	var secondRevokedAt time.Time
	require.NoError(t, database.QueryRow(`SELECT revoked_at FROM certificates WHERE id = ?`, cert.ID).Scan(&secondRevokedAt))
	assert.Equal(t, firstRevokedAt, secondRevokedAt, "revocation time must not move on repeat revoke")

	_, err = repo.MarkRevoked(ctx, "CERT-404")
	assert.True(t, errors.Is(err, registry.ErrNotFound))

	count, err := repo.CountRevoked(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCertRepositoryRetrieveAll(t *testing.T) {
	repo := repository.NewCertRepository(openDB(t).DB)
	ctx := context.Background()

	all, err := repo.RetrieveAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	var want []models.Certificate
	for i := 0; i < 5; i++ {
		// ids deliberately not in lexical order
		cert := models.Certificate{ID: fmt.Sprintf("CERT-%d", 50-i), Name: fmt.Sprintf("holder-%d", i)}
		require.NoError(t, repo.Create(ctx, cert))
		want = append(want, cert)
	}

	all, err = repo.RetrieveAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, all)
}

func TestRegistryOverSQLite(t *testing.T) {
	database := openDB(t)
	audit := repository.NewAuditRepository(database.DB)
	reg := registry.New(
		repository.NewCertRepository(database.DB),
		registry.NewSequenceProvider(func() time.Time { return time.Unix(1000, 0) }),
		registry.WithAuditSink(audit),
	)
	ctx := context.Background()

	cert, err := reg.Issue(ctx, "Alice", "Rust 101", "2024-01-01")
	require.NoError(t, err)
	assert.False(t, cert.Revoked)

	valid, err := reg.Verify(ctx, cert.ID)
	require.NoError(t, err)
	assert.True(t, valid)

	revoked, err := reg.Revoke(ctx, cert.ID)
	require.NoError(t, err)
	assert.True(t, revoked.Revoked)

	valid, err = reg.Verify(ctx, cert.ID)
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = reg.Revoke(ctx, "CERT-9999")
	assert.True(t, errors.Is(err, registry.ErrNotFound))

	all, err := reg.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Certificate{revoked}, all)

	logs, err := audit.List(ctx, "", "", 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, models.ActionCertRevoke, logs[0].Action)
	assert.False(t, logs[0].Success)
	assert.Equal(t, models.ActionCertIssue, logs[2].Action)
}

func TestAuditRepository(t *testing.T) {
	repo := repository.NewAuditRepository(openDB(t).DB)
	ctx := context.Background()

	entries := []*models.AuditLog{
		{Action: models.ActionCertIssue, CertificateID: "CERT-1", Success: true},
		{Action: models.ActionCertRevoke, CertificateID: "CERT-1", Success: true},
		{Action: models.ActionCertRevoke, CertificateID: "CERT-404", Success: false, ErrorMsg: "certificate not found"},
	}
	for _, entry := range entries {
		require.NoError(t, repo.Create(ctx, entry))
		assert.NotZero(t, entry.ID)
	}

	cases := []struct {
		desc          string
		certificateID string
		action        string
		limit         int
		count         int
	}{
		{desc: "list all", limit: 10, count: 3},
		{desc: "list with limit", limit: 2, count: 2},
		{desc: "list by action", action: models.ActionCertRevoke, limit: 10, count: 2},
		{desc: "list by certificate", certificateID: "CERT-1", limit: 10, count: 2},
		{desc: "list by certificate and action", certificateID: "CERT-404", action: models.ActionCertRevoke, limit: 10, count: 1},
	}

	for _, tc := range cases {
		logs, err := repo.List(ctx, tc.certificateID, tc.action, tc.limit)
		require.NoError(t, err, tc.desc)
		assert.Len(t, logs, tc.count, tc.desc)
	}

	logs, err := repo.List(ctx, "CERT-404", "", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	assert.Equal(t, "certificate not found", logs[0].ErrorMsg)

	revokes, err := repo.CountByAction(ctx, models.ActionCertRevoke, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, revokes)

	deleted, err := repo.DeleteOld(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}
