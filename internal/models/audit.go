package models

import "time"

// AuditLog represents an audit log entry
type AuditLog struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Action        string    `json:"action"`
	CertificateID string    `json:"certificate_id"`
	Success       bool      `json:"success"`
	ErrorMsg      string    `json:"error_msg,omitempty"`
}

// Audit action constants
const (
	ActionCertIssue  = "cert_issue"
	ActionCertRevoke = "cert_revoke"
)
