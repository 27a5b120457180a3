// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Verdict is the outcome of answering a verification question. Only Confirmed
// and Refuted count toward a chunk's completion quota; Inconclusive signals the
// chunk should be revisited.
type Verdict string

const (
	VerdictConfirmed    Verdict = "confirmed"
	VerdictRefuted      Verdict = "refuted"
	VerdictInconclusive Verdict = "inconclusive"
)

// ValidVerdict reports whether v is one of the three accepted verdicts.
func ValidVerdict(v Verdict) bool {
	return v == VerdictConfirmed || v == VerdictRefuted || v == VerdictInconclusive
}

// Countable reports whether the verdict counts toward the verification quota.
func (v Verdict) Countable() bool {
	return v == VerdictConfirmed || v == VerdictRefuted
}

// VerificationRecord is a claim -> question -> answer -> verdict tuple attached
// to the chunk during which it was produced. Records are immutable once written;
// corrections are new records referencing the old one via EvidenceRef.
type VerificationRecord struct {
	// ID is the record's row identifier, assigned at insertion.
	ID int64 `json:"id" yaml:"id"`

	// ChunkID is the chunk the record was produced for.
	ChunkID string `json:"chunk_id" yaml:"chunk_id"`

	// ClaimRef names the claim under test: an Insight ID or free text.
	ClaimRef string `json:"claim_ref" yaml:"claim_ref"`

	// Question is the falsifiable question asked about the claim.
	Question string `json:"question" yaml:"question"`

	// Answer is the answer found in the source text.
	Answer string `json:"answer" yaml:"answer"`

	// EvidenceRef optionally points at supporting evidence or at a prior
	// record this one corrects.
	EvidenceRef string `json:"evidence_ref,omitempty" yaml:"evidence_ref,omitempty"`

	// Verdict is the outcome: confirmed, refuted, or inconclusive.
	Verdict Verdict `json:"verdict" yaml:"verdict"`
}
