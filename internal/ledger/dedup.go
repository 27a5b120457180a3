// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// defaultIdentityFields names the fields whose normalized values form the
// dedup key, per insight type. The exact set is configurable because the right
// identity fields vary by domain; these defaults match the corpus the pipeline
// was built for.
var defaultIdentityFields = map[types.InsightType][]string{
	types.InsightUserJourney:      {"persona", "workflow_type", "solution_summary"},
	types.InsightTechnicalInsight: {"topic", "summary"},
	types.InsightStrategicTheme:   {"theme", "summary"},
}

// normalize lowercases, strips punctuation, and collapses whitespace so that
// trivially re-phrased duplicates fingerprint equal. Anything beyond this is
// deliberately out of scope: false negatives (missed merges) are preferred
// over false positives, since merging is irreversible.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
		// Punctuation and symbols are dropped without forcing a separator.
	}
	return b.String()
}

// dedupKey fingerprints an insight's identity fields: each named field's value
// is normalized, the values are joined in configured order, and the result is
// hashed. The key is the first 16 hex characters of the SHA-256.
func dedupKey(identity []string, fields map[string]string) string {
	parts := make([]string, len(identity))
	for i, name := range identity {
		parts[i] = normalize(fields[name])
	}
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("%x", h)[:16]
}
