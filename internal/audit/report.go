package audit

import (
	"time"

	"github.com/banksyndicate/core/internal/entities"
)

// complianceFullScore mirrors internal/validation's L6 starting score;
// a trail's compliance risk is the complement of its audit_score, so a
// perfectly compliant transaction (score 100) contributes zero risk.
const complianceFullScore = 100

// RiskBuckets counts trails into the three compliance-risk bands
// spec.md §4.8 defines: low risk under 30, medium under 70, high at or
// above 70, where risk is complianceFullScore minus L6's audit_score.
type RiskBuckets struct {
	Low    uint64
	Medium uint64
	High   uint64
}

// ComplianceReport is GenerateDailyComplianceReport's aggregated result
// over every trail initiated within one UTC calendar day.
type ComplianceReport struct {
	Date                    time.Time
	TotalTransactions       uint64
	Completed               uint64
	Failed                  uint64
	FraudDetections         uint64
	AverageProcessingTimeMs float64
	ComplianceScore         float64
	RiskBuckets             RiskBuckets
}

// GenerateDailyComplianceReport aggregates every trail whose
// TimestampInitiated falls within date's UTC calendar day — [00:00,
// 24:00) in UTC, not the caller's local day, so the report is stable
// regardless of where it's generated from.
func (s *Store) GenerateDailyComplianceReport(date time.Time) ComplianceReport {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	report := ComplianceReport{Date: dayStart}

	var totalTimeMs int64
	var scoreSum float64
	var scoreCount uint64

	for _, trail := range s.Snapshot() {
		ts := trail.TimestampInitiated.UTC()
		if ts.Before(dayStart) || !ts.Before(dayEnd) {
			continue
		}

		report.TotalTransactions++
		switch trail.FinalStatus {
		case entities.FinalCompleted:
			report.Completed++
		case entities.FinalRejected:
			report.Failed++
		}

		if fraud, ok := trail.Layers[entities.LayerFraud]; ok && fraud.Verdict == entities.LayerRejected {
			report.FraudDetections++
		}

		totalTimeMs += trail.TotalTimeMs

		if compliance, ok := trail.Layers[entities.LayerCompliance]; ok {
			if score, ok := complianceAuditScore(compliance.Metadata); ok {
				scoreSum += score
				scoreCount++

				risk := complianceFullScore - score
				switch {
				case risk < 30:
					report.RiskBuckets.Low++
				case risk < 70:
					report.RiskBuckets.Medium++
				default:
					report.RiskBuckets.High++
				}
			}
		}
	}

	if report.TotalTransactions > 0 {
		report.AverageProcessingTimeMs = float64(totalTimeMs) / float64(report.TotalTransactions)
	}
	if scoreCount > 0 {
		report.ComplianceScore = scoreSum / float64(scoreCount)
	}
	return report
}

// complianceAuditScore pulls L6's "audit_score" metadata value out as a
// float64, tolerating either the int the layer currently stores it as
// or a float64 a persisted/round-tripped trail might carry instead.
func complianceAuditScore(metadata map[string]any) (float64, bool) {
	switch v := metadata["audit_score"].(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
