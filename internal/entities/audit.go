package entities

import "time"

// LayerVerdict is the per-layer outcome inside the validation protocol.
type LayerVerdict string

const (
	LayerApproved LayerVerdict = "APPROVED"
	LayerReview   LayerVerdict = "REVIEW"
	LayerRejected LayerVerdict = "REJECTED"
)

// LayerName identifies one of the six validation protocol layers.
type LayerName string

const (
	LayerKYA         LayerName = "KYA"
	LayerPreflight   LayerName = "PREFLIGHT"
	LayerConsensus   LayerName = "CONSENSUS"
	LayerFraud       LayerName = "FRAUD"
	LayerSettlement  LayerName = "SETTLEMENT"
	LayerCompliance  LayerName = "COMPLIANCE"
)

// LayerNames lists the six layers in the order the protocol driver runs them.
func LayerNames() []LayerName {
	return []LayerName{LayerKYA, LayerPreflight, LayerConsensus, LayerFraud, LayerSettlement, LayerCompliance}
}

// LayerResult is one layer's slot in the AuditTrail.
type LayerResult struct {
	Layer     LayerName      `json:"layer"`
	Verdict   LayerVerdict   `json:"verdict"`
	Reasoning string         `json:"reasoning"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
}

// FinalStatus is the terminal outcome an AuditTrail records.
type FinalStatus string

const (
	FinalCompleted FinalStatus = "COMPLETED"
	FinalRejected  FinalStatus = "REJECTED"
)

// AuditTrail is the per-transaction record produced by the validation
// protocol driver; fully serializable for persistence or reporting.
type AuditTrail struct {
	TransactionID     string                      `json:"transaction_id"`
	TimestampInitiated time.Time                  `json:"timestamp_initiated"`
	Layers            map[LayerName]LayerResult   `json:"layers"`
	FinalStatus       FinalStatus                 `json:"final_status"`
	TotalTimeMs       int64                       `json:"total_time_ms"`
}

// NewAuditTrail starts a trail for txID with an empty slot per layer.
func NewAuditTrail(txID string, now time.Time) *AuditTrail {
	return &AuditTrail{
		TransactionID:      txID,
		TimestampInitiated: now,
		Layers:             make(map[LayerName]LayerResult, len(LayerNames())),
	}
}

// RecordLayer fills in one layer's slot.
func (a *AuditTrail) RecordLayer(r LayerResult) {
	a.Layers[r.Layer] = r
}
