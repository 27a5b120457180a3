// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// ExecExtractor invokes an external program per chunk: the request is written
// to its stdin as JSON, the result read from its stdout as JSON. Secrets are
// appended to the child environment. The context bounds the call; a timeout
// kills the process.
type ExecExtractor struct {
	Command string
	Args    []string

	// Env holds extra KEY=VALUE entries for the child process, typically
	// secrets.Environ output.
	Env []string
}

// Extract runs the configured command for one chunk.
func (e *ExecExtractor) Extract(ctx context.Context, req types.ExtractorRequest) (types.ExtractorResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return types.ExtractorResult{}, fmt.Errorf("marshaling request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = append(os.Environ(), e.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return types.ExtractorResult{}, fmt.Errorf("extractor timed out: %w", ctx.Err())
		}
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return types.ExtractorResult{}, fmt.Errorf("extractor %s: %w: %s", e.Command, err, msg)
		}
		return types.ExtractorResult{}, fmt.Errorf("extractor %s: %w", e.Command, err)
	}

	var result types.ExtractorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return types.ExtractorResult{}, fmt.Errorf("parsing extractor output: %w", err)
	}
	return result, nil
}
