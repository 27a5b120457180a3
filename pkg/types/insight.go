// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// InsightType categorizes an insight extracted from the corpus.
type InsightType string

const (
	InsightUserJourney      InsightType = "user_journey"
	InsightTechnicalInsight InsightType = "technical_insight"
	InsightStrategicTheme   InsightType = "strategic_theme"
)

// IDPrefix returns the prefix used for sequential IDs of this type
// (e.g. "UJ" yields UJ-001, UJ-002, ...).
func (t InsightType) IDPrefix() string {
	switch t {
	case InsightUserJourney:
		return "UJ"
	case InsightTechnicalInsight:
		return "TI"
	case InsightStrategicTheme:
		return "ST"
	}
	return ""
}

// ValidInsightType reports whether t is one of the three accepted types.
func ValidInsightType(t InsightType) bool {
	return t.IDPrefix() != ""
}

// SourceRef is a provenance link from an insight back to a line range of a
// registered document.
type SourceRef struct {
	// SourceID references the SourceDocument the insight was derived from.
	SourceID string `json:"source_id" yaml:"source_id"`

	// StartLine is the first line of the supporting range, inclusive.
	StartLine int `json:"start_line" yaml:"start_line"`

	// EndLine is the last line of the supporting range, inclusive.
	EndLine int `json:"end_line" yaml:"end_line"`
}

// Insight is a typed, deduplicated unit of extracted knowledge. Records are
// append-only: after insertion only SourceRefs grows (on duplicate submission)
// and Retired flips (on supersession).
type Insight struct {
	// ID is assigned sequentially per type at first insertion (e.g. "UJ-009").
	ID string `json:"id" yaml:"id"`

	// Type categorizes the insight.
	Type InsightType `json:"type" yaml:"type"`

	// DedupKey is the normalized fingerprint of the insight's identity fields.
	// Two submissions with the same (Type, DedupKey) merge into one record.
	DedupKey string `json:"dedup_key" yaml:"dedup_key"`

	// Fields holds the insight's content as free-form named fields
	// (e.g. persona, workflow_type, solution_summary for a user journey).
	Fields map[string]string `json:"fields" yaml:"fields"`

	// SourceRefs lists every line range the insight was derived from, in
	// submission order. Grows as duplicate submissions merge.
	SourceRefs []SourceRef `json:"source_refs" yaml:"source_refs"`

	// Retired marks the insight as logically superseded. The record is kept
	// for traceability.
	Retired bool `json:"retired,omitempty" yaml:"retired,omitempty"`
}

// Relation labels a directed cross-reference between two insights.
type Relation string

const (
	RelatesTo  Relation = "relates_to"
	DependsOn  Relation = "depends_on"
	Supersedes Relation = "supersedes"
)

// ValidRelation reports whether r is one of the three accepted relations.
func ValidRelation(r Relation) bool {
	return r == RelatesTo || r == DependsOn || r == Supersedes
}

// CrossReference is a directed edge between two insights.
type CrossReference struct {
	FromID   string   `json:"from_id" yaml:"from_id"`
	ToID     string   `json:"to_id" yaml:"to_id"`
	Relation Relation `json:"relation" yaml:"relation"`
}
