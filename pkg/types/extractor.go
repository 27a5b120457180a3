// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExtractorRequest is the input handed to the external Extractor collaborator
// for one chunk. Text carries the chunk's line window so the Extractor never
// needs filesystem access.
type ExtractorRequest struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	ChunkID    string `json:"chunk_id" yaml:"chunk_id"`
	StartLine  int    `json:"start_line" yaml:"start_line"`
	EndLine    int    `json:"end_line" yaml:"end_line"`

	// OverlapContextLines is how many leading lines of Text repeat the tail of
	// the previous chunk.
	OverlapContextLines int `json:"overlap_context_lines" yaml:"overlap_context_lines"`

	// Text is the chunk's content, lines StartLine..EndLine joined by newlines.
	Text string `json:"text" yaml:"text"`
}

// CandidateInsight is one insight proposed by the Extractor, before dedup and
// ID assignment.
type CandidateInsight struct {
	Type   InsightType       `json:"type" yaml:"type"`
	Fields map[string]string `json:"fields" yaml:"fields"`
}

// CandidateVerification is one answered verification question proposed by the
// Extractor.
type CandidateVerification struct {
	ClaimRef    string  `json:"claim_ref" yaml:"claim_ref"`
	Question    string  `json:"question" yaml:"question"`
	Answer      string  `json:"answer" yaml:"answer"`
	EvidenceRef string  `json:"evidence_ref,omitempty" yaml:"evidence_ref,omitempty"`
	Verdict     Verdict `json:"verdict" yaml:"verdict"`
}

// ExtractorResult is the Extractor's output for one chunk. The core is agnostic
// to how it was produced (human analyst, LLM call, rule engine).
type ExtractorResult struct {
	Insights            []CandidateInsight      `json:"insights" yaml:"insights"`
	VerificationRecords []CandidateVerification `json:"verification_records" yaml:"verification_records"`
}
