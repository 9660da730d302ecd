package models

import "time"

// AuditAction constants represent privileged actions to be logged.
const (
	AuditActionForceVerify   = "FORCE_VERIFY"
	AuditActionForceReject   = "FORCE_REJECT"
	AuditActionAdminDelete   = "ADMIN_DELETE"
	AuditActionSubjectCreate = "SUBJECT_CREATE"
	AuditActionSubjectDelete = "SUBJECT_DELETE"
	AuditActionReportRequest = "REPORT_REQUEST"
)

// AuditLog records a privileged action. Crowd-rejected content is hard
// deleted and never retained here; only the acting identity and the
// target id are kept.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
