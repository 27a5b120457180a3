// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials for the external Extractor from a
// directory of plain-text files: the filename is the key name and the file
// contents (trimmed) are the value. The exec extractor receives them as
// environment variables; the core never interprets them.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", entry.Name(), err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[entry.Name()] = value
		}
	}

	return secrets, nil
}

// EnvName converts a secret file name to its environment variable form:
// uppercased, with hyphens and dots replaced by underscores
// (e.g. "anthropic-api-key" becomes "ANTHROPIC_API_KEY").
func EnvName(name string) string {
	name = strings.ToUpper(name)
	name = strings.ReplaceAll(name, "-", "_")
	return strings.ReplaceAll(name, ".", "_")
}

// Environ renders the secrets as KEY=VALUE entries suitable for appending to
// an exec.Cmd environment.
func Environ(secrets map[string]string) []string {
	env := make([]string, 0, len(secrets))
	for name, value := range secrets {
		env = append(env, EnvName(name)+"="+value)
	}
	return env
}
