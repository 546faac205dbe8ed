package audit_test

import (
	"testing"
	"time"

	"github.com/banksyndicate/core/internal/audit"
	"github.com/banksyndicate/core/internal/entities"
)

func approvedTrail(txID string, at time.Time, auditScore int, fraudRejected bool) *entities.AuditTrail {
	trail := entities.NewAuditTrail(txID, at)
	fraudVerdict := entities.LayerApproved
	if fraudRejected {
		fraudVerdict = entities.LayerRejected
	}
	trail.RecordLayer(entities.LayerResult{Layer: entities.LayerFraud, Verdict: fraudVerdict, Timestamp: at})
	trail.RecordLayer(entities.LayerResult{
		Layer:     entities.LayerCompliance,
		Verdict:   entities.LayerApproved,
		Metadata:  map[string]any{"audit_score": auditScore},
		Timestamp: at,
	})
	trail.FinalStatus = entities.FinalCompleted
	if fraudRejected {
		trail.FinalStatus = entities.FinalRejected
	}
	trail.TotalTimeMs = 10
	return trail
}

func TestStoreEvictsOldestBeyondCapacity(t *testing.T) {
	s := audit.NewStore(2)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Record(approvedTrail("tx-1", base, 100, false))
	s.Record(approvedTrail("tx-2", base, 100, false))
	s.Record(approvedTrail("tx-3", base, 100, false))

	if s.Len() != 2 {
		t.Fatalf("expected capacity to cap retained trails at 2, got %d", s.Len())
	}
	snap := s.Snapshot()
	if snap[0].TransactionID != "tx-2" || snap[1].TransactionID != "tx-3" {
		t.Fatalf("expected the oldest trail evicted, got %+v", snap)
	}
}

func TestGenerateDailyComplianceReportAggregatesWithinUTCDay(t *testing.T) {
	s := audit.NewStore(0)
	day1 := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 6, 1, 0, 0, 0, time.UTC)

	s.Record(approvedTrail("tx-1", day1, 100, false)) // low risk
	s.Record(approvedTrail("tx-2", day1, 50, false))  // medium risk (risk=50)
	s.Record(approvedTrail("tx-3", day1, 10, true))   // high risk (risk=90) + fraud
	s.Record(approvedTrail("tx-4", day2, 100, false)) // different day, excluded

	report := s.GenerateDailyComplianceReport(time.Date(2026, 3, 5, 23, 0, 0, 0, time.UTC))

	if report.TotalTransactions != 3 {
		t.Fatalf("expected 3 transactions in the day-1 window, got %d", report.TotalTransactions)
	}
	if report.Completed != 2 || report.Failed != 1 {
		t.Fatalf("expected 2 completed / 1 failed, got completed=%d failed=%d", report.Completed, report.Failed)
	}
	if report.FraudDetections != 1 {
		t.Fatalf("expected 1 fraud detection, got %d", report.FraudDetections)
	}
	if report.RiskBuckets.Low != 1 || report.RiskBuckets.Medium != 1 || report.RiskBuckets.High != 1 {
		t.Fatalf("expected one trail per risk bucket, got %+v", report.RiskBuckets)
	}
	wantScore := (100.0 + 50.0 + 10.0) / 3.0
	if report.ComplianceScore != wantScore {
		t.Fatalf("expected average compliance score %v, got %v", wantScore, report.ComplianceScore)
	}
}

func TestGenerateDailyComplianceReportEmptyDay(t *testing.T) {
	s := audit.NewStore(0)
	report := s.GenerateDailyComplianceReport(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	if report.TotalTransactions != 0 || report.AverageProcessingTimeMs != 0 || report.ComplianceScore != 0 {
		t.Fatalf("expected a zeroed report for a day with no trails, got %+v", report)
	}
}
