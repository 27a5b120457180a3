// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

func TestExport(t *testing.T) {
	led := testSetup(t)
	ctx := context.Background()

	a, _, err := led.Submit(ctx, types.InsightUserJourney, journeyFields("nightly batch"), ref("doc", 1, 300))
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := led.Submit(ctx, types.InsightTechnicalInsight,
		map[string]string{"topic": "scheduling", "summary": "batch window"}, ref("doc", 281, 580))
	if err != nil {
		t.Fatal(err)
	}
	if err := led.Retire(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	edges := []types.CrossReference{{FromID: a.ID, ToID: b.ID, Relation: types.RelatesTo}}
	entries, err := led.Export(ctx, edges)
	if err != nil {
		t.Fatal(err)
	}

	// Retired insights are exported too, for traceability.
	if len(entries) != 2 {
		t.Fatalf("exported %d entries, want 2", len(entries))
	}
	byID := map[string]ExportEntry{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	if len(byID[a.ID].Links) != 1 || byID[a.ID].Links[0].ToID != b.ID {
		t.Errorf("links of %s = %+v", a.ID, byID[a.ID].Links)
	}
	if !byID[b.ID].Retired {
		t.Error("retired flag lost in export")
	}
}

func TestWriteExportFormats(t *testing.T) {
	led := testSetup(t)
	ctx := context.Background()
	if _, _, err := led.Submit(ctx, types.InsightUserJourney, journeyFields("nightly batch"), ref("doc", 1, 300)); err != nil {
		t.Fatal(err)
	}
	entries, err := led.Export(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "export.yaml")
	if err := WriteExportYAML(yamlPath, entries); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML []ExportEntry
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatal(err)
	}
	if len(fromYAML) != 1 || fromYAML[0].ID != "UJ-001" {
		t.Errorf("YAML round trip = %+v", fromYAML)
	}

	jsonPath := filepath.Join(dir, "export.json")
	if err := WriteExportJSON(jsonPath, entries); err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON []ExportEntry
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if len(fromJSON) != 1 || fromJSON[0].Fields["solution_summary"] != "nightly batch" {
		t.Errorf("JSON round trip = %+v", fromJSON)
	}
}
