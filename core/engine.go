package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransformationType identifies one of the supported transformations.
type TransformationType string

const (
	MaskingStatic           TransformationType = "masking_static"
	MaskingDynamic          TransformationType = "masking_dynamic"
	Redaction               TransformationType = "redaction"
	EncryptionDeterministic TransformationType = "encryption_deterministic"
	EncryptionRandomized    TransformationType = "encryption_randomized"
	Hashing                 TransformationType = "hashing"
	Pseudonymization        TransformationType = "pseudonymization"
	Anonymization           TransformationType = "anonymization"
	Tokenization            TransformationType = "tokenization"
	DataDeletionHard        TransformationType = "data_deletion_hard"
	DataDeletionSoft        TransformationType = "data_deletion_soft"
	DataPortability         TransformationType = "data_portability"
	DataRectification       TransformationType = "data_rectification"
	Aggregation             TransformationType = "aggregation"
	Suppression             TransformationType = "suppression"
	Perturbation            TransformationType = "perturbation"
)

// DSARType identifies the data-subject request driving a transformation.
type DSARType string

const (
	DSARAccess             DSARType = "access"
	DSARDelete             DSARType = "delete"
	DSARRectify            DSARType = "rectify"
	DSARRestrictProcessing DSARType = "restrict_processing"
	DSARPortability        DSARType = "portability"
	DSARObjectToProcessing DSARType = "object_to_processing"
)

// DataClass is the coarse bucket used to select transformation policy.
type DataClass string

const (
	ClassIdentifiers DataClass = "identifiers"
	ClassFinancial   DataClass = "financial"
	ClassHealth      DataClass = "health"
	ClassLocation    DataClass = "location"
	ClassBehavioral  DataClass = "behavioral"
	ClassBiometric   DataClass = "biometric"
)

// piiToDataClass maps a PII category to its data class. Categories without
// an entry default to identifiers.
var piiToDataClass = map[PIIType]DataClass{
	PIIAadhaar:                ClassIdentifiers,
	PIIPan:                    ClassFinancial,
	PIIEmail:                  ClassIdentifiers,
	PIIPhone:                  ClassIdentifiers,
	PIIType("name"):           ClassIdentifiers,
	PIIType("address"):        ClassLocation,
	PIIDOB:                    ClassIdentifiers,
	PIIHealth:                 ClassHealth,
	PIIType("financial_info"): ClassFinancial,
	PIICreditCard:             ClassFinancial,
	PIISSN:                    ClassIdentifiers,
	PIIPassport:               ClassIdentifiers,
	PIIIPAddress:              ClassBehavioral,
	PIIType("biometric"):      ClassBiometric,
}

// DataClassFor resolves a PII category to its data class, defaulting to
// identifiers for unknown categories.
func DataClassFor(t PIIType) DataClass {
	if c, ok := piiToDataClass[t]; ok {
		return c
	}
	return ClassIdentifiers
}

// dsarTransformationMap is the ordered transformation list per
// (DSAR intent, data class). Only the first entry of a list is executed;
// the rest are advisory.
var dsarTransformationMap = map[DSARType]map[DataClass][]TransformationType{
	DSARAccess: {
		ClassIdentifiers: {MaskingDynamic, Suppression},
		ClassFinancial:   {MaskingDynamic, Tokenization},
		ClassHealth:      {Pseudonymization, Aggregation},
		ClassLocation:    {Aggregation, Suppression},
		ClassBehavioral:  {Hashing, Suppression},
	},
	DSARDelete: {
		ClassIdentifiers: {DataDeletionHard},
		ClassFinancial:   {DataDeletionSoft, Anonymization},
		ClassHealth:      {Anonymization, DataDeletionHard},
		ClassBehavioral:  {DataDeletionHard},
	},
	DSARRectify: {
		ClassIdentifiers: {DataRectification},
		ClassFinancial:   {DataRectification},
		ClassHealth:      {DataRectification},
		ClassLocation:    {DataRectification},
	},
	DSARRestrictProcessing: {
		ClassIdentifiers: {EncryptionRandomized, Tokenization},
		ClassFinancial:   {EncryptionRandomized, Tokenization},
		ClassHealth:      {EncryptionRandomized, Pseudonymization},
		ClassBehavioral:  {EncryptionRandomized},
	},
	DSARPortability: {
		ClassIdentifiers: {DataPortability, MaskingStatic},
		ClassFinancial:   {DataPortability, MaskingDynamic},
		ClassHealth:      {DataPortability, Pseudonymization},
		ClassLocation:    {DataPortability, Aggregation},
	},
	DSARObjectToProcessing: {
		ClassBehavioral:  {Suppression, Hashing},
		ClassIdentifiers: {Suppression, EncryptionRandomized},
	},
}

// TransformationRequest asks the engine to transform a finding set for a
// DSAR intent.
type TransformationRequest struct {
	Findings []Finding `json:"findings"`

	DSARType DSARType `json:"dsar_type"`

	// DataClasses optionally restricts transformation to findings of these
	// classes. Empty means all.
	DataClasses []DataClass `json:"data_classes,omitempty"`

	ComplianceLaws []Law `json:"compliance_laws,omitempty"`

	// UserContext carries free-form request context, e.g. a
	// "corrected_value" for rectification.
	UserContext map[string]string `json:"user_context,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// TransformationResult is the outcome of transforming one finding's value.
// TransformedValue is nil when the transformation suppresses the value
// entirely, which is distinct from an empty string after hard deletion.
type TransformationResult struct {
	OriginalValue      string             `json:"original_value"`
	TransformedValue   *string            `json:"transformed_value,omitempty"`
	TransformationType TransformationType `json:"transformation_type"`
	Confidence         float64            `json:"confidence"`
	Metadata           map[string]string  `json:"metadata,omitempty"`
	Timestamp          time.Time          `json:"timestamp"`
}

// Transformed reports the transformed value and whether it is present at
// all. Suppressed values are absent.
func (r TransformationResult) Transformed() (string, bool) {
	if r.TransformedValue == nil {
		return "", false
	}
	return *r.TransformedValue, true
}

// TransformationEngine applies policy-selected transformations to findings.
// The pseudonym table and the two ciphers are process-wide state owned by
// the engine instance and are safe for concurrent callers.
type TransformationEngine struct {
	deterministic *symmetricCipher
	randomized    *symmetricCipher
	pseudonyms    *pseudonymTable
	logger        *zap.Logger
	audit         *AuditLogger
}

// NewTransformationEngine creates an engine with freshly generated cipher
// keys and an empty pseudonym table. Key lifetime is the engine lifetime;
// production key management is out of scope.
func NewTransformationEngine(logger *zap.Logger) (*TransformationEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	det, err := newSymmetricCipher(true)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize deterministic cipher: %w", err)
	}
	rnd, err := newSymmetricCipher(false)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize randomized cipher: %w", err)
	}

	return &TransformationEngine{
		deterministic: det,
		randomized:    rnd,
		pseudonyms:    newPseudonymTable(),
		logger:        logger.Named("engine"),
		audit:         NewAuditLogger(logger),
	}, nil
}

// Transform resolves and applies the first applicable transformation to
// each finding in the request. Per-value failures are contained: the value's
// result carries an error tag and confidence 0.0 while the pass continues.
func (e *TransformationEngine) Transform(request TransformationRequest) []TransformationResult {
	requestID := uuid.NewString()
	results := make([]TransformationResult, 0, len(request.Findings))

	for _, finding := range request.Findings {
		class := DataClassFor(finding.Type)
		if !request.classWanted(class) {
			continue
		}

		transformations := transformationsFor(request.DSARType, class, request.ComplianceLaws)
		applied := transformations[0]

		result := e.apply(finding.Value, applied, finding, request)
		result.Timestamp = time.Now().UTC()
		results = append(results, result)
	}

	e.audit.Event(requestID, "transformation_applied", "engine", SeverityInfo, map[string]string{
		"dsar_type": string(request.DSARType),
		"findings":  fmt.Sprintf("%d", len(request.Findings)),
		"results":   fmt.Sprintf("%d", len(results)),
	})

	return results
}

func (r TransformationRequest) classWanted(class DataClass) bool {
	if len(r.DataClasses) == 0 {
		return true
	}
	for _, c := range r.DataClasses {
		if c == class {
			return true
		}
	}
	return false
}

// transformationsFor is a total lookup: every (intent, class) combination
// yields a non-empty list, falling back to dynamic masking, with
// compliance-law overrides applied on top of the table.
func transformationsFor(dsar DSARType, class DataClass, laws []Law) []TransformationType {
	transformations := dsarTransformationMap[dsar][class]
	if len(transformations) == 0 {
		transformations = []TransformationType{MaskingDynamic}
	}

	if lawsContain(laws, LawGDPR) {
		switch dsar {
		case DSARDelete:
			transformations = []TransformationType{DataDeletionHard}
		case DSARRestrictProcessing:
			transformations = []TransformationType{EncryptionRandomized}
		}
	}
	if lawsContain(laws, LawHIPAA) && class == ClassHealth {
		transformations = []TransformationType{Anonymization, Pseudonymization}
	}

	return transformations
}

// RecommendTransformations exposes the full advisory transformation list
// for a DSAR intent and data class under the given laws.
func (e *TransformationEngine) RecommendTransformations(dsar DSARType, class DataClass, laws []Law) []TransformationType {
	return transformationsFor(dsar, class, laws)
}

func lawsContain(laws []Law, want Law) bool {
	for _, l := range laws {
		if l == want {
			return true
		}
	}
	return false
}

// apply dispatches a value to the requested transformation.
func (e *TransformationEngine) apply(value string, t TransformationType, finding Finding, request TransformationRequest) TransformationResult {
	switch t {
	case MaskingStatic:
		return staticMask(value, finding.Type)
	case MaskingDynamic:
		return dynamicMask(value, finding.Type)
	case Redaction:
		return redact(value)
	case EncryptionDeterministic:
		return e.encrypt(value, e.deterministic, "deterministic")
	case EncryptionRandomized:
		return e.encrypt(value, e.randomized, "randomized")
	case Hashing:
		return hashTransform(value)
	case Pseudonymization:
		return e.pseudonyms.pseudonymize(value, finding.Type)
	case Anonymization:
		return anonymize(value, finding.Type)
	case Tokenization:
		return tokenize(value)
	case DataDeletionHard:
		return hardDelete(value)
	case DataDeletionSoft:
		return softDelete(value)
	case DataPortability:
		return exportPortable(value, finding)
	case DataRectification:
		return rectify(value, request)
	case Aggregation:
		return aggregate(value, finding.Type)
	case Suppression:
		return suppress(value)
	case Perturbation:
		return perturb(value, finding.Type)
	default:
		return dynamicMask(value, finding.Type)
	}
}

// encrypt never returns an error: a cipher failure yields an error-tagged
// result with confidence 0.0 so the pass continues.
func (e *TransformationEngine) encrypt(value string, cipher *symmetricCipher, mode string) TransformationResult {
	transformationType := EncryptionDeterministic
	if mode == "randomized" {
		transformationType = EncryptionRandomized
	}

	encrypted, err := cipher.Encrypt(value)
	if err != nil {
		e.logger.Error("encryption failed", zap.String("mode", mode), zap.Error(err))
		errValue := "ENCRYPTION_ERROR: " + err.Error()
		return TransformationResult{
			OriginalValue:      value,
			TransformedValue:   &errValue,
			TransformationType: transformationType,
			Confidence:         0.0,
			Metadata:           map[string]string{"error": err.Error()},
		}
	}

	return TransformationResult{
		OriginalValue:      value,
		TransformedValue:   &encrypted,
		TransformationType: transformationType,
		Confidence:         0.95,
		Metadata: map[string]string{
			"encryption_type": mode,
			"reversible":      "true",
		},
	}
}
