package core

import (
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Detector names identify which detection layer contributed to a finding.
const (
	DetectorRegex      = "regex"
	DetectorKeyword    = "keyword"
	DetectorHeuristic  = "field-name-heuristic"
	DetectorDSARRegex  = "dsar-regex"
	DetectorClassifier = "classifier"
)

// Finding is one detected sensitive value. Findings are immutable once a
// scan finishes; the transformation engine only ever reads them.
type Finding struct {
	// Scope identifies the source container: a db.collection pair for
	// record scans, the mailbox name for message scans.
	Scope string `json:"scope"`

	// RecordID is the document id or message id the value came from.
	RecordID string `json:"record_id"`

	// ThreadID is set for message findings only.
	ThreadID string `json:"thread_id,omitempty"`

	// FieldPath is the dotted path inside the record, or "content" for
	// message text.
	FieldPath string `json:"field_path"`

	// Value is the detected value as it appeared in the source.
	Value string `json:"value"`

	// RawSnippet is the surrounding field text, capped at 200 characters.
	RawSnippet string `json:"raw_value_snippet"`

	// Type is the PII/PHI category of the value.
	Type PIIType `json:"type"`

	// Subtype carries the DSAR intent for findings of type "dsar".
	Subtype string `json:"subtype,omitempty"`

	// Confidence is the aggregated detection confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// MappedLaws lists the compliance laws governing this category.
	MappedLaws []Law `json:"mapped_laws"`

	// Detectors lists the detection layers that fired, in firing order.
	Detectors []string `json:"detectors"`

	// Timestamp records when the finding was first created.
	Timestamp time.Time `json:"timestamp"`
}

// confidenceByDetectorSet recomputes a finding's confidence from the set of
// detectors that contributed. Keys are the sorted detector names joined by
// "+". Combinations without an entry keep the confidence recorded when the
// finding was first created, including the message-only detectors and the
// keyword+heuristic pairing.
var confidenceByDetectorSet = map[string]float64{
	DetectorRegex:     0.95,
	DetectorKeyword:   0.75,
	DetectorHeuristic: 0.60,
	DetectorHeuristic + "+" + DetectorRegex:                         0.97,
	DetectorKeyword + "+" + DetectorRegex:                           0.96,
	DetectorHeuristic + "+" + DetectorKeyword + "+" + DetectorRegex: 0.99,
}

// findingAccumulator merges raw detector matches into one finding per
// (scope, record, field, normalized value, type) identity during a scan
// pass. Repeated hits grow the detector set instead of duplicating.
type findingAccumulator struct {
	order []uint64
	byKey map[uint64]*Finding
}

func newFindingAccumulator() *findingAccumulator {
	return &findingAccumulator{byKey: make(map[uint64]*Finding)}
}

// identityKey digests the dedup identity tuple of a finding. Subtype is
// part of the identity so that distinct DSAR intents on the same message
// text stay separate findings.
func identityKey(scope, recordID, fieldPath, normalized string, t PIIType, subtype string) uint64 {
	d := xxhash.New()
	for _, part := range []string{scope, recordID, fieldPath, normalized, string(t), subtype} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// add records a detector hit. On identity collision the existing finding
// gains the detector name and is otherwise untouched until finalize.
func (a *findingAccumulator) add(f Finding, detector string) {
	key := identityKey(f.Scope, f.RecordID, f.FieldPath, normalizeValue(f.Value, f.Type), f.Type, f.Subtype)

	if existing, ok := a.byKey[key]; ok {
		for _, d := range existing.Detectors {
			if d == detector {
				return
			}
		}
		existing.Detectors = append(existing.Detectors, detector)
		return
	}

	f.Detectors = []string{detector}
	f.Timestamp = time.Now().UTC()
	a.byKey[key] = &f
	a.order = append(a.order, key)
}

// finalize converts the accumulating map into an immutable finding list,
// recomputing each confidence from the contributing detector set.
func (a *findingAccumulator) finalize() []Finding {
	out := make([]Finding, 0, len(a.order))
	for _, key := range a.order {
		f := a.byKey[key]

		set := make([]string, len(f.Detectors))
		copy(set, f.Detectors)
		sort.Strings(set)
		if conf, ok := confidenceByDetectorSet[strings.Join(set, "+")]; ok {
			f.Confidence = conf
		}

		out = append(out, *f)
	}
	return out
}

// snippet caps a raw field value for storage on a finding.
func snippet(v string) string {
	if len(v) > 200 {
		return v[:200]
	}
	return v
}
