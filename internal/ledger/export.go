// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// ExportEntry is one insight with its outgoing cross-references, the shape
// written by the export command.
type ExportEntry struct {
	types.Insight `yaml:",inline"`
	Links         []types.CrossReference `json:"links,omitempty" yaml:"links,omitempty"`
}

// Export collects every insight (including retired ones, for traceability)
// with its outgoing edges.
func (l *Ledger) Export(ctx context.Context, edges []types.CrossReference) ([]ExportEntry, error) {
	insights, err := l.List(ctx, ListOptions{IncludeRetired: true})
	if err != nil {
		return nil, err
	}

	byFrom := make(map[string][]types.CrossReference)
	for _, e := range edges {
		byFrom[e.FromID] = append(byFrom[e.FromID], e)
	}

	entries := make([]ExportEntry, len(insights))
	for i, ins := range insights {
		entries[i] = ExportEntry{Insight: ins, Links: byFrom[ins.ID]}
	}
	return entries, nil
}

// WriteExportYAML marshals entries to a YAML file.
func WriteExportYAML(path string, entries []ExportEntry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteExportJSON marshals entries to a JSON file.
func WriteExportJSON(path string, entries []ExportEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
