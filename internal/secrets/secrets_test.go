// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"anthropic-api-key": "sk-test-123\n",
		"extractor.token":   "  tok-456  \n",
		".hidden":           "ignored",
		"empty":             "   \n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	secrets, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(secrets) != 2 {
		t.Fatalf("loaded %d secrets, want 2: %v", len(secrets), secrets)
	}
	if secrets["anthropic-api-key"] != "sk-test-123" {
		t.Errorf("value not trimmed: %q", secrets["anthropic-api-key"])
	}
	if secrets["extractor.token"] != "tok-456" {
		t.Errorf("value not trimmed: %q", secrets["extractor.token"])
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	secrets, err := Load(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("missing directory should not error: %v", err)
	}
	if len(secrets) != 0 {
		t.Errorf("secrets = %v, want empty", secrets)
	}
}

func TestEnvName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"anthropic-api-key", "ANTHROPIC_API_KEY"},
		{"extractor.token", "EXTRACTOR_TOKEN"},
		{"PLAIN", "PLAIN"},
		{"a-b.c", "A_B_C"},
	}
	for _, tt := range tests {
		if got := EnvName(tt.in); got != tt.want {
			t.Errorf("EnvName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnviron(t *testing.T) {
	env := Environ(map[string]string{
		"api-key": "v1",
		"token":   "v2",
	})
	sort.Strings(env)
	want := []string{"API_KEY=v1", "TOKEN=v2"}
	if len(env) != 2 || env[0] != want[0] || env[1] != want[1] {
		t.Errorf("Environ = %v, want %v", env, want)
	}
}
