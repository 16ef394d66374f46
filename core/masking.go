package core

import (
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// redactionMarker replaces values under the redaction transformation.
const redactionMarker = "[REDACTED]"

// deletionMarker replaces values under soft deletion.
const deletionMarker = "[DELETED]"

// anonymizationMarker replaces values with no category-specific
// generalization rule.
const anonymizationMarker = "ANONYMIZED"

func result(original, transformed string, t TransformationType, confidence float64, metadata map[string]string) TransformationResult {
	return TransformationResult{
		OriginalValue:      original,
		TransformedValue:   &transformed,
		TransformationType: t,
		Confidence:         confidence,
		Metadata:           metadata,
	}
}

// staticMask replaces a value with a category-specific fixed pattern.
func staticMask(value string, t PIIType) TransformationResult {
	switch t {
	case PIIEmail:
		if at := strings.Index(value, "@"); at > 0 {
			local, domain := value[:at], value[at+1:]
			masked := local[:1] + strings.Repeat("*", len(local)-1) + "@" + domain
			return result(value, masked, MaskingStatic, 0.95, map[string]string{"pattern": "email_static_mask"})
		}
	case PIIPhone, PIIAadhaar:
		if len(value) >= 4 {
			masked := strings.Repeat("*", len(value)-4) + value[len(value)-4:]
			return result(value, masked, MaskingStatic, 0.95, map[string]string{"pattern": "last_4_digits"})
		}
	case PIIPan:
		if len(value) >= 4 {
			masked := value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
			return result(value, masked, MaskingStatic, 0.95, map[string]string{"pattern": "first_last_2"})
		}
	case PIICreditCard:
		masked := "****"
		if len(value) >= 4 {
			masked = "****-****-****-" + value[len(value)-4:]
		}
		return result(value, masked, MaskingStatic, 0.95, map[string]string{"pattern": "standard_financial_mask"})
	case PIISSN:
		masked := "***-**-****"
		if len(value) >= 4 {
			masked = "***-**-" + value[len(value)-4:]
		}
		return result(value, masked, MaskingStatic, 0.95, map[string]string{"pattern": "standard_financial_mask"})
	}

	// Default mask: keep first and last 2 characters, or nothing at all
	// for short values.
	var masked string
	if len(value) > 4 {
		masked = value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
	} else {
		masked = strings.Repeat("*", len(value))
	}
	return result(value, masked, MaskingStatic, 0.8, map[string]string{"pattern": "default_mask"})
}

// dynamicMask produces the same output as staticMask but records that the
// original value is conceptually preserved at the source.
func dynamicMask(value string, t PIIType) TransformationResult {
	r := staticMask(value, t)
	r.TransformationType = MaskingDynamic
	r.Metadata["original_preserved"] = "true"
	r.Metadata["masking_type"] = "dynamic"
	return r
}

func redact(value string) TransformationResult {
	return result(value, redactionMarker, Redaction, 1.0, map[string]string{"redaction_reason": "sensitive_data"})
}

// anonymize strips a value so it cannot be re-identified: dates of birth
// generalize to the year, addresses to the city, everything else collapses
// to a fixed marker.
func anonymize(value string, t PIIType) TransformationResult {
	switch t {
	case PIIDOB:
		if parsed, err := time.Parse("2006-01-02", value); err == nil {
			return result(value, parsed.Format("2006"), Anonymization, 0.9,
				map[string]string{"anonymization_type": "year_only"})
		}
		return result(value, anonymizationMarker, Anonymization, 1.0,
			map[string]string{"anonymization_type": "complete"})
	case PIIType("address"):
		parts := strings.Split(value, ",")
		if len(parts) >= 2 {
			return result(value, strings.TrimSpace(parts[len(parts)-2]), Anonymization, 0.8,
				map[string]string{"anonymization_type": "city_only"})
		}
		return result(value, anonymizationMarker, Anonymization, 1.0,
			map[string]string{"anonymization_type": "complete"})
	default:
		return result(value, anonymizationMarker, Anonymization, 1.0,
			map[string]string{"anonymization_type": "complete"})
	}
}

// aggregate reduces granularity: dates of birth to year-month, addresses to
// city and state, everything else to a per-category marker.
func aggregate(value string, t PIIType) TransformationResult {
	switch t {
	case PIIDOB:
		if parsed, err := time.Parse("2006-01-02", value); err == nil {
			return result(value, parsed.Format("2006-01"), Aggregation, 0.9,
				map[string]string{"granularity": "year_month"})
		}
		return result(value, "AGGREGATED", Aggregation, 1.0, map[string]string{"granularity": "unknown"})
	case PIIType("address"):
		parts := strings.Split(value, ",")
		if len(parts) >= 2 {
			city := strings.TrimSpace(parts[len(parts)-2])
			state := strings.TrimSpace(parts[len(parts)-1])
			return result(value, city+", "+state, Aggregation, 0.8,
				map[string]string{"granularity": "city_state"})
		}
		return result(value, "AGGREGATED", Aggregation, 1.0, map[string]string{"granularity": "unknown"})
	default:
		return result(value, "AGGREGATED_"+strings.ToUpper(string(t)), Aggregation, 1.0,
			map[string]string{"granularity": "type_based"})
	}
}

func hardDelete(value string) TransformationResult {
	return result(value, "", DataDeletionHard, 1.0, map[string]string{
		"deletion_type": "hard",
		"deleted_at":    time.Now().UTC().Format(time.RFC3339),
	})
}

func softDelete(value string) TransformationResult {
	return result(value, deletionMarker, DataDeletionSoft, 1.0, map[string]string{
		"deletion_type":      "soft",
		"deleted_at":         time.Now().UTC().Format(time.RFC3339),
		"original_preserved": "true",
	})
}

// suppress omits the value entirely. The result carries no transformed
// value at all, which is not the same as an empty string.
func suppress(value string) TransformationResult {
	return TransformationResult{
		OriginalValue:      value,
		TransformedValue:   nil,
		TransformationType: Suppression,
		Confidence:         1.0,
		Metadata: map[string]string{
			"suppression_reason": "field_omitted",
			"suppressed_at":      time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// portableExport is the structured unit emitted by the portability
// transformation.
type portableExport struct {
	Type     string            `json:"type"`
	Value    string            `json:"value"`
	Metadata map[string]string `json:"metadata"`
}

// exportPortable emits a machine-readable structured export of the value.
func exportPortable(value string, finding Finding) TransformationResult {
	export := portableExport{
		Type:  string(finding.Type),
		Value: value,
		Metadata: map[string]string{
			"extracted_at": time.Now().UTC().Format(time.RFC3339),
			"source":       finding.Scope,
			"field_path":   finding.FieldPath,
		},
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return result(value, value, DataPortability, 0.0, map[string]string{"error": err.Error()})
	}

	return result(value, string(data), DataPortability, 1.0, map[string]string{
		"format":           "JSON",
		"machine_readable": "true",
	})
}

// rectify replaces the value with a caller-supplied correction; without one
// it is a no-op.
func rectify(value string, request TransformationRequest) TransformationResult {
	corrected, ok := request.UserContext["corrected_value"]
	if !ok {
		corrected = value
	}
	return result(value, corrected, DataRectification, 1.0, map[string]string{
		"rectification_type": "data_update",
		"original_value":     value,
		"corrected_at":       time.Now().UTC().Format(time.RFC3339),
	})
}

// perturb adds bounded random noise: ±30 days for dates of birth, ±1000
// floored at zero for purely numeric identifiers. Categories with no noise
// model pass through unchanged at confidence 0.5.
func perturb(value string, t PIIType) TransformationResult {
	if t == PIIDOB {
		if parsed, err := time.Parse("2006-01-02", value); err == nil {
			noise := rand.IntN(61) - 30
			perturbed := parsed.AddDate(0, 0, noise)
			return result(value, perturbed.Format("2006-01-02"), Perturbation, 0.8,
				map[string]string{"noise_range": "±30_days"})
		}
		return result(value, value, Perturbation, 0.0, map[string]string{"error": "date_parsing_failed"})
	}

	if (t == PIIPhone || t == PIIAadhaar) && isDigits(value) {
		num, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return result(value, value, Perturbation, 0.0, map[string]string{"error": "number_parsing_failed"})
		}
		noise := int64(rand.IntN(2001) - 1000)
		perturbed := num + noise
		if perturbed < 0 {
			perturbed = 0
		}
		return result(value, strconv.FormatInt(perturbed, 10), Perturbation, 0.7,
			map[string]string{"noise_range": "±1000"})
	}

	return result(value, value, Perturbation, 0.5, map[string]string{"noise_type": "none_applicable"})
}

func isDigits(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
