package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/adamscao/certregistry/internal/models"
	"github.com/adamscao/certregistry/internal/registry"
	"github.com/gin-gonic/gin"
)

// CertHandler handles certificate issuance, lookup and revocation
type CertHandler struct {
	svc    registry.Service
	logger *slog.Logger
}

// NewCertHandler creates a new certificate handler
func NewCertHandler(svc registry.Service, logger *slog.Logger) *CertHandler {
	return &CertHandler{
		svc:    svc,
		logger: logger,
	}
}

// IssueRequest represents a certificate issue request.
// All fields are free-form and may be empty.
type IssueRequest struct {
	Name   string `json:"name"`
	Course string `json:"course"`
	Date   string `json:"date"`
}

// ListResponse represents a certificate list response
type ListResponse struct {
	Certificates []models.Certificate `json:"certificates"`
	Total        int                  `json:"total"`
}

// VerifyResponse represents a certificate verification response
type VerifyResponse struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid"`
}

// IssueCertificate handles certificate issuance
// POST /v1/certs
func (h *CertHandler) IssueCertificate(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	cert, err := h.svc.Issue(c.Request.Context(), req.Name, req.Course, req.Date)
	if err != nil {
		h.internalError(c, "Failed to issue certificate", err)
		return
	}

	RespondSuccess(c, cert)
}

// ListCertificates returns every certificate
// GET /v1/certs
func (h *CertHandler) ListCertificates(c *gin.Context) {
	certs, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to list certificates", err)
		return
	}

	RespondSuccess(c, ListResponse{
		Certificates: certs,
		Total:        len(certs),
	})
}

// GetCertificate returns a single certificate
// GET /v1/certs/:id
func (h *CertHandler) GetCertificate(c *gin.Context) {
	cert, ok, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internalError(c, "Failed to get certificate", err)
		return
	}
	if !ok {
		RespondError(c, http.StatusNotFound, "not_found", "Certificate not found")
		return
	}

	RespondSuccess(c, cert)
}

// VerifyCertificate reports whether a certificate is valid.
// Unknown and revoked certificates both report valid=false.
// GET /v1/certs/:id/verify
func (h *CertHandler) VerifyCertificate(c *gin.Context) {
	id := c.Param("id")

	valid, err := h.svc.Verify(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, "Failed to verify certificate", err)
		return
	}

	RespondSuccess(c, VerifyResponse{
		ID:    id,
		Valid: valid,
	})
}

// RevokeCertificate revokes a certificate
// POST /v1/certs/:id/revoke
func (h *CertHandler) RevokeCertificate(c *gin.Context) {
	cert, err := h.svc.Revoke(c.Request.Context(), c.Param("id"))
	if errors.Is(err, registry.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", "Certificate not found")
		return
	}
	if err != nil {
		h.internalError(c, "Failed to revoke certificate", err)
		return
	}

	RespondSuccess(c, cert)
}

func (h *CertHandler) internalError(c *gin.Context, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	RespondError(c, http.StatusInternalServerError, "internal_error", message)
}
