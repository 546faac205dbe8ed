package entities

import "time"

// SanctionsStatus is the outcome of a sanctions-list check.
type SanctionsStatus string

const (
	SanctionsCleared SanctionsStatus = "cleared"
	SanctionsPending SanctionsStatus = "pending"
	SanctionsFlagged SanctionsStatus = "flagged"
)

// KYAData is the per-agent "Know Your Agent" identity record consulted
// by validation layer L1.
type KYAData struct {
	AgentType          string          `json:"agent_type"`
	OwnerEntity        string          `json:"owner_entity"`
	Purpose            string          `json:"purpose"`
	Jurisdiction       string          `json:"jurisdiction"`
	CreatedTimestamp   time.Time       `json:"created_timestamp"`
	CodeHash           string          `json:"code_hash"`
	BehaviorModel      string          `json:"behavior_model"`
	SecurityAuditURL   string          `json:"security_audit_url"`
	AMLScore           float64         `json:"aml_score"`
	SanctionsCheck     SanctionsStatus `json:"sanctions_check"`
	RegulatoryApproval string          `json:"regulatory_approval"`
}
