package core

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// messageFieldPath is the content descriptor used for message findings in
// place of a record field path.
const messageFieldPath = "content"

// Scanner runs the detection pipeline over records and messages, producing
// a deduplicated, confidence-scored list of findings per scan pass.
type Scanner struct {
	config     Config
	policy     *Policy
	classifier Classifier
	logger     *zap.Logger
	audit      *AuditLogger

	// patterns is the effective regex detector set after applying the
	// policy's category toggles and custom patterns.
	patterns map[PIIType]*regexp.Regexp

	// patternOrder fixes detector evaluation order: built-ins first, then
	// custom patterns sorted by name.
	patternOrder []PIIType
}

// NewScanner builds a scanner from config and policy. The classifier may be
// nil, in which case message scans skip zero-shot DSAR detection.
func NewScanner(config Config, policy *Policy, classifier Classifier, logger *zap.Logger) (*Scanner, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	patterns := make(map[PIIType]*regexp.Regexp)
	var order []PIIType

	enabled := func(t PIIType) bool {
		if len(policy.EnabledCategories) == 0 {
			return true
		}
		for _, c := range policy.EnabledCategories {
			if c == t {
				return true
			}
		}
		return false
	}

	for _, t := range piiOrder {
		if enabled(t) {
			patterns[t] = piiPatterns[t]
			order = append(order, t)
		}
	}

	for name, pattern := range policy.CustomPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid custom pattern %q: %w", name, err)
		}
		patterns[PIIType(name)] = re
	}
	for _, name := range sortedKeys(policy.CustomPatterns) {
		order = append(order, PIIType(name))
	}

	return &Scanner{
		config:       config,
		policy:       policy,
		classifier:   classifier,
		logger:       logger.Named("scanner"),
		audit:        NewAuditLogger(logger),
		patterns:     patterns,
		patternOrder: order,
	}, nil
}

// ScanRecords scans sampled records from every collection of the source,
// one record and one field at a time. Record scans have no internal
// parallelism.
func (s *Scanner) ScanRecords(ctx context.Context, src RecordSource) ([]Finding, error) {
	collections, err := src.Collections(ctx)
	if err != nil {
		return nil, newPipelineError(ErrorCategoryConnection, "records",
			fmt.Errorf("%w: %v", ErrSourceUnavailable, err))
	}

	acc := newFindingAccumulator()

	for _, collection := range collections {
		records, err := src.Sample(ctx, collection, s.config.SampleSize)
		if err != nil {
			return nil, newPipelineError(ErrorCategoryConnection, collection,
				fmt.Errorf("%w: %v", ErrSourceUnavailable, err))
		}

		for _, record := range records {
			flat := Flatten(record.Fields)
			for fieldPath, value := range flat {
				if strings.TrimSpace(value) == "" {
					continue
				}
				s.scanField(acc, collection, record.ID, fieldPath, value)
			}
		}

		s.logger.Debug("collection scanned",
			zap.String("collection", collection),
			zap.Int("records", len(records)))
	}

	findings := s.finish(acc)
	s.audit.Event("scan", "record_scan_completed", "scanner", SeverityInfo, map[string]string{
		"collections": fmt.Sprintf("%d", len(collections)),
		"findings":    fmt.Sprintf("%d", len(findings)),
	})
	return findings, nil
}

// ScanText runs the per-field detector stack over a standalone piece of
// text, treating it as a single ad-hoc field. Message-only DSAR detectors
// do not run here.
func (s *Scanner) ScanText(text, fieldPath string) []Finding {
	if fieldPath == "" {
		fieldPath = "text"
	}
	acc := newFindingAccumulator()
	s.scanField(acc, "adhoc", "", fieldPath, text)
	return s.finish(acc)
}

// scanField runs the per-field detector stack: regex detectors in fixed
// category order, the health-keyword detector gated on no regex having
// matched, and the field-name heuristic, which always runs.
func (s *Scanner) scanField(acc *findingAccumulator, scope, recordID, fieldPath, value string) {
	matched := false

	for _, t := range s.patternOrder {
		m := s.patterns[t].FindString(value)
		if m == "" {
			continue
		}
		matched = true
		acc.add(Finding{
			Scope:      scope,
			RecordID:   recordID,
			FieldPath:  fieldPath,
			Value:      m,
			RawSnippet: snippet(value),
			Type:       t,
			Confidence: 0.95,
			MappedLaws: MapToLaws(t),
		}, DetectorRegex)
	}

	if !matched && healthKeywords.MatchString(value) {
		acc.add(Finding{
			Scope:      scope,
			RecordID:   recordID,
			FieldPath:  fieldPath,
			Value:      snippet(value),
			RawSnippet: snippet(value),
			Type:       PIIHealth,
			Confidence: 0.75,
			MappedLaws: MapToLaws(PIIHealth),
		}, DetectorKeyword)
	}

	// The heuristic is independent of the matched flag. First hit wins.
	lname := strings.ToLower(fieldPath)
	for _, h := range fieldHeuristics {
		hit := false
		for _, keyword := range h.Keywords {
			if strings.Contains(lname, keyword) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		acc.add(Finding{
			Scope:      scope,
			RecordID:   recordID,
			FieldPath:  fieldPath,
			Value:      snippet(value),
			RawSnippet: snippet(value),
			Type:       h.Type,
			Confidence: 0.60,
			MappedLaws: MapToLaws(h.Type),
		}, DetectorHeuristic)
		break
	}
}

// scanMessage runs the full detector stack plus the message-only DSAR
// detectors over one message's concatenated header+body text, returning the
// message's finalized findings.
func (s *Scanner) scanMessage(ctx context.Context, scope string, msg *Message) []Finding {
	text := fmt.Sprintf("From: %s\nSubject: %s\n\n%s", msg.From, msg.Subject, msg.Body)

	acc := newFindingAccumulator()
	s.scanField(acc, scope, msg.ID, messageFieldPath, text)

	for _, intent := range dsarIntentOrder {
		m := dsarPatterns[intent].FindString(text)
		if m == "" {
			continue
		}
		acc.add(Finding{
			Scope:      scope,
			RecordID:   msg.ID,
			ThreadID:   msg.ThreadID,
			FieldPath:  messageFieldPath,
			Value:      m,
			RawSnippet: snippet(text),
			Type:       PIIDSAR,
			Subtype:    string(intent),
			Confidence: 0.85,
			MappedLaws: MapToLaws(PIIDSAR),
		}, DetectorDSARRegex)
	}

	s.classifyMessage(ctx, acc, scope, msg, text)

	findings := s.finish(acc)
	for i := range findings {
		findings[i].ThreadID = msg.ThreadID
	}
	return findings
}

// classifyMessage invokes the zero-shot classifier once per message with the
// full label set. A classifier failure aborts only classifier-based DSAR
// detection for this message; the message's other findings are kept.
func (s *Scanner) classifyMessage(ctx context.Context, acc *findingAccumulator, scope string, msg *Message, text string) {
	if s.classifier == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.config.ClassifierTimeout)
	defer cancel()

	scores, err := s.classifier.Classify(cctx, text, DSARLabels)
	if err != nil {
		s.logger.Warn("classifier call failed, skipping DSAR classification",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		s.audit.Event(msg.ID, "classifier_failed", "scanner", SeverityWarning, map[string]string{
			"error": err.Error(),
		})
		return
	}

	for _, ls := range scores {
		if ls.Score <= s.config.ClassifierThreshold {
			continue
		}
		acc.add(Finding{
			Scope:      scope,
			RecordID:   msg.ID,
			ThreadID:   msg.ThreadID,
			FieldPath:  messageFieldPath,
			Value:      snippet(text),
			RawSnippet: snippet(text),
			Type:       PIIDSAR,
			Subtype:    ls.Label,
			Confidence: ls.Score,
			MappedLaws: MapToLaws(PIIDSAR),
		}, DetectorClassifier)
	}
}

// finish finalizes an accumulator and applies the policy's confidence floor.
func (s *Scanner) finish(acc *findingAccumulator) []Finding {
	findings := acc.finalize()
	if s.policy.MinConfidence <= 0 {
		return findings
	}

	kept := findings[:0]
	for _, f := range findings {
		if f.Confidence >= s.policy.MinConfidence {
			kept = append(kept, f)
		}
	}
	return kept
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
