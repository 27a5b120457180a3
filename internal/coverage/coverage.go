// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coverage certifies that a document's completed chunks cover its full
// line range without gaps, silent truncation, or overlap beyond the planned
// window. Violations are itemized findings in a report, never errors: a
// document can be legitimately incomplete mid-run, and certify always
// describes the world as it is.
package coverage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// CertStatus is the outcome of certifying a document or the corpus.
type CertStatus string

const (
	Certified  CertStatus = "certified"
	Incomplete CertStatus = "incomplete"
)

// FindingKind labels a coverage violation.
type FindingKind string

const (
	// FindingGap is a line range no completed chunk covers.
	FindingGap FindingKind = "gap"

	// FindingOverlapExcess is adjacent completed chunks overlapping by more
	// than the planned overlap size.
	FindingOverlapExcess FindingKind = "overlap_excess"

	// FindingTruncation is a final completed chunk ending short of the
	// document's total line count.
	FindingTruncation FindingKind = "truncation"
)

// Finding is one itemized coverage violation over the inclusive line range
// [From, To].
type Finding struct {
	Kind   FindingKind `json:"kind" yaml:"kind"`
	From   int         `json:"from" yaml:"from"`
	To     int         `json:"to" yaml:"to"`
	Detail string      `json:"detail" yaml:"detail"`
}

// Certificate is the coverage report for one document.
type Certificate struct {
	DocumentID      string     `json:"document_id" yaml:"document_id"`
	Status          CertStatus `json:"status" yaml:"status"`
	Findings        []Finding  `json:"findings,omitempty" yaml:"findings,omitempty"`
	PercentComplete float64    `json:"percent_complete" yaml:"percent_complete"`
	ChunksTotal     int        `json:"chunks_total" yaml:"chunks_total"`
	ChunksComplete  int        `json:"chunks_complete" yaml:"chunks_complete"`
}

// CorpusCertificate aggregates per-document certificates. The corpus is
// certified only when every document is.
type CorpusCertificate struct {
	Status          CertStatus    `json:"status" yaml:"status"`
	Documents       []Certificate `json:"documents" yaml:"documents"`
	PercentComplete float64       `json:"percent_complete" yaml:"percent_complete"`
}

// Verifier reconciles completed chunks against each document's line count.
type Verifier struct {
	st *store.Store
}

// New creates a Verifier backed by the given store.
func New(st *store.Store) *Verifier {
	return &Verifier{st: st}
}

// Certify reconciles the document's completed chunks against its total line
// count and reports an itemized certificate.
func (v *Verifier) Certify(ctx context.Context, documentID string) (Certificate, error) {
	var (
		totalLines int
		overlap    sql.NullInt64
	)
	err := v.st.DB().QueryRowContext(ctx,
		`SELECT total_lines, overlap_size FROM documents WHERE id = ?`, documentID,
	).Scan(&totalLines, &overlap)
	if err == sql.ErrNoRows {
		return Certificate{}, &types.NotFoundError{Kind: "document", ID: documentID}
	}
	if err != nil {
		return Certificate{}, fmt.Errorf("reading document %s: %w", documentID, err)
	}

	rows, err := v.st.DB().QueryContext(ctx,
		`SELECT start_line, end_line, status FROM chunks WHERE source_id = ?`, documentID)
	if err != nil {
		return Certificate{}, fmt.Errorf("reading chunks of %s: %w", documentID, err)
	}
	defer rows.Close()

	type span struct{ start, end int }
	var (
		complete []span
		total    int
	)
	for rows.Next() {
		var (
			s      span
			status string
		)
		if err := rows.Scan(&s.start, &s.end, &status); err != nil {
			return Certificate{}, fmt.Errorf("scanning chunk row: %w", err)
		}
		total++
		if types.ChunkStatus(status) == types.ChunkComplete {
			complete = append(complete, s)
		}
	}
	if err := rows.Err(); err != nil {
		return Certificate{}, err
	}

	cert := Certificate{
		DocumentID:     documentID,
		ChunksTotal:    total,
		ChunksComplete: len(complete),
	}

	sort.Slice(complete, func(i, j int) bool { return complete[i].start < complete[j].start })

	maxOverlap := 0
	if overlap.Valid {
		maxOverlap = int(overlap.Int64)
	}

	covered := 0
	prevEnd := 0 // walk as if a virtual chunk ended at line 0
	for _, s := range complete {
		if s.start > prevEnd+1 {
			cert.Findings = append(cert.Findings, Finding{
				Kind:   FindingGap,
				From:   prevEnd + 1,
				To:     s.start - 1,
				Detail: fmt.Sprintf("lines %d-%d not covered by any completed chunk", prevEnd+1, s.start-1),
			})
		}
		if over := prevEnd - s.start + 1; prevEnd > 0 && over > maxOverlap {
			cert.Findings = append(cert.Findings, Finding{
				Kind:   FindingOverlapExcess,
				From:   s.start,
				To:     prevEnd,
				Detail: fmt.Sprintf("chunks overlap by %d lines, planned overlap is %d", over, maxOverlap),
			})
		}
		if s.end > prevEnd {
			start := s.start
			if start <= prevEnd {
				start = prevEnd + 1
			}
			covered += s.end - start + 1
			prevEnd = s.end
		}
	}

	if prevEnd < totalLines {
		kind := FindingGap
		detail := fmt.Sprintf("lines %d-%d not covered by any completed chunk", prevEnd+1, totalLines)
		if len(complete) > 0 && len(cert.Findings) == 0 {
			kind = FindingTruncation
			detail = fmt.Sprintf("coverage ends at line %d of %d", prevEnd, totalLines)
		}
		cert.Findings = append(cert.Findings, Finding{
			Kind:   kind,
			From:   prevEnd + 1,
			To:     totalLines,
			Detail: detail,
		})
	}

	if totalLines > 0 {
		cert.PercentComplete = 100 * float64(covered) / float64(totalLines)
	}
	if len(cert.Findings) == 0 && covered == totalLines && totalLines > 0 {
		cert.Status = Certified
	} else {
		cert.Status = Incomplete
	}
	return cert, nil
}

// CertifyCorpus certifies every registered document and aggregates the
// results. The corpus percentage is weighted by document line count.
func (v *Verifier) CertifyCorpus(ctx context.Context) (CorpusCertificate, error) {
	rows, err := v.st.DB().QueryContext(ctx,
		`SELECT id, total_lines FROM documents ORDER BY id`)
	if err != nil {
		return CorpusCertificate{}, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	type doc struct {
		id    string
		lines int
	}
	var docs []doc
	for rows.Next() {
		var d doc
		if err := rows.Scan(&d.id, &d.lines); err != nil {
			return CorpusCertificate{}, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return CorpusCertificate{}, err
	}

	corpus := CorpusCertificate{Status: Certified}
	var weightedCovered, totalLines float64
	for _, d := range docs {
		cert, err := v.Certify(ctx, d.id)
		if err != nil {
			return CorpusCertificate{}, err
		}
		corpus.Documents = append(corpus.Documents, cert)
		if cert.Status != Certified {
			corpus.Status = Incomplete
		}
		weightedCovered += cert.PercentComplete / 100 * float64(d.lines)
		totalLines += float64(d.lines)
	}
	if len(docs) == 0 {
		corpus.Status = Incomplete
	}
	if totalLines > 0 {
		corpus.PercentComplete = 100 * weightedCovered / totalLines
	}
	return corpus, nil
}
