package core

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compliance status values.
const (
	StatusCompliant         = "COMPLIANT"
	StatusPartialCompliance = "PARTIAL_COMPLIANCE"
	StatusNonCompliant      = "NON_COMPLIANT"
)

// Risk level values.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// ComplianceStatus summarizes how well a transformation pass satisfied the
// requested laws.
type ComplianceStatus struct {
	OverallStatus     string         `json:"overall_status"`
	LawSpecificStatus map[Law]string `json:"law_specific_status"`
	RiskLevel         string         `json:"risk_level"`
}

// ReportSummary aggregates a transformation pass.
type ReportSummary struct {
	TotalFindings           int                  `json:"total_findings"`
	TotalTransformed        int                  `json:"total_transformed"`
	TransformationTypesUsed []TransformationType `json:"transformation_types_used"`
	AverageConfidence       float64              `json:"average_confidence"`
}

// ComplianceReport is the full in-memory report for one transformation
// pass. It round-trips through JSON without loss.
type ComplianceReport struct {
	ReportID         string                 `json:"report_id"`
	GeneratedAt      time.Time              `json:"generated_at"`
	DSARType         DSARType               `json:"dsar_type"`
	ComplianceLaws   []Law                  `json:"compliance_laws"`
	Summary          ReportSummary          `json:"summary"`
	Transformations  []TransformationResult `json:"transformations"`
	ComplianceStatus ComplianceStatus       `json:"compliance_status"`
	Recommendations  []string               `json:"recommendations"`
}

// CreateComplianceReport builds the report for a transformation pass.
func (e *TransformationEngine) CreateComplianceReport(results []TransformationResult, request TransformationRequest) *ComplianceReport {
	report := &ComplianceReport{
		ReportID:         uuid.NewString(),
		GeneratedAt:      time.Now().UTC(),
		DSARType:         request.DSARType,
		ComplianceLaws:   request.ComplianceLaws,
		Summary:          summarize(results, request),
		Transformations:  results,
		ComplianceStatus: assessComplianceStatus(results, request),
		Recommendations:  complianceRecommendations(results, request),
	}

	e.logger.Info("compliance report generated",
		zap.String("report_id", report.ReportID),
		zap.String("dsar_type", string(request.DSARType)),
		zap.String("overall_status", report.ComplianceStatus.OverallStatus))
	e.audit.Event(report.ReportID, "report_generated", "reporter", SeverityInfo, map[string]string{
		"overall_status": report.ComplianceStatus.OverallStatus,
		"risk_level":     report.ComplianceStatus.RiskLevel,
	})

	return report
}

func summarize(results []TransformationResult, request TransformationRequest) ReportSummary {
	summary := ReportSummary{
		TotalFindings:    len(request.Findings),
		TotalTransformed: len(results),
	}

	seen := make(map[TransformationType]bool)
	var confidenceSum float64
	for _, r := range results {
		seen[r.TransformationType] = true
		confidenceSum += r.Confidence
	}

	for t := range seen {
		summary.TransformationTypesUsed = append(summary.TransformationTypesUsed, t)
	}
	sort.Slice(summary.TransformationTypesUsed, func(i, j int) bool {
		return summary.TransformationTypesUsed[i] < summary.TransformationTypesUsed[j]
	})

	if len(results) > 0 {
		summary.AverageConfidence = confidenceSum / float64(len(results))
	}

	return summary
}

// assessComplianceStatus starts at COMPLIANT and degrades per law: GDPR
// deletion requires hard deletion on every result; HIPAA requires
// anonymization or pseudonymization on at least 80% of results.
func assessComplianceStatus(results []TransformationResult, request TransformationRequest) ComplianceStatus {
	status := ComplianceStatus{
		OverallStatus:     StatusCompliant,
		LawSpecificStatus: make(map[Law]string),
		RiskLevel:         RiskLow,
	}

	for _, law := range request.ComplianceLaws {
		switch law {
		case LawGDPR:
			if request.DSARType != DSARDelete {
				continue
			}
			hardDeletions := 0
			for _, r := range results {
				if r.TransformationType == DataDeletionHard {
					hardDeletions++
				}
			}
			if hardDeletions == len(results) {
				status.LawSpecificStatus[LawGDPR] = StatusCompliant
			} else {
				status.LawSpecificStatus[LawGDPR] = StatusPartialCompliance
				status.OverallStatus = StatusPartialCompliance
				status.RiskLevel = RiskMedium
			}

		case LawHIPAA:
			anonymized := 0
			for _, r := range results {
				if r.TransformationType == Anonymization || r.TransformationType == Pseudonymization {
					anonymized++
				}
			}
			if float64(anonymized) >= float64(len(results))*0.8 {
				status.LawSpecificStatus[LawHIPAA] = StatusCompliant
			} else {
				status.LawSpecificStatus[LawHIPAA] = StatusNonCompliant
				status.OverallStatus = StatusNonCompliant
				status.RiskLevel = RiskHigh
			}
		}
	}

	return status
}

// complianceRecommendations emits advisory strings keyed off result
// thresholds and the requested laws.
func complianceRecommendations(results []TransformationResult, request TransformationRequest) []string {
	var recommendations []string

	lowConfidence := false
	usedRandomizedEncryption := false
	usedTokenization := false
	for _, r := range results {
		if r.Confidence < 0.8 {
			lowConfidence = true
		}
		if r.TransformationType == EncryptionRandomized {
			usedRandomizedEncryption = true
		}
		if r.TransformationType == Tokenization {
			usedTokenization = true
		}
	}

	if lowConfidence {
		recommendations = append(recommendations,
			"Review low-confidence transformations and consider manual verification")
	}

	if lawsContain(request.ComplianceLaws, LawGDPR) {
		switch request.DSARType {
		case DSARDelete:
			recommendations = append(recommendations,
				"Ensure complete data deletion to meet GDPR Article 17 requirements")
		case DSARAccess:
			recommendations = append(recommendations,
				"Provide data in machine-readable format as per GDPR Article 20")
		}
	}

	if lawsContain(request.ComplianceLaws, LawHIPAA) {
		recommendations = append(recommendations,
			"Implement additional anonymization measures for health data as per HIPAA Safe Harbor")
	}

	if usedRandomizedEncryption {
		recommendations = append(recommendations,
			"Ensure encryption keys are securely managed and rotated regularly")
	}
	if usedTokenization {
		recommendations = append(recommendations,
			"Maintain secure token-to-data mapping for reversible transformations")
	}

	return recommendations
}
