// Package types defines every cross‑package data structure used by the test-runner-mcp server.
package types

import (
	"strconv"
	"strings"
)

const (
	// ToolRunRSpec runs RSpec for a single validated file target.
	ToolRunRSpec = "run_rspec"
	// ToolRunRSpecArguments runs RSpec with a sanitized raw argument list.
	ToolRunRSpecArguments = "run_rspec_args"
	// ToolRunCypress runs a single Cypress specification file.
	ToolRunCypress = "run_cypress"

	// FormatRaw identifies plain-text report output.
	FormatRaw = "raw"
	// FormatJSON identifies JSON report output.
	FormatJSON = "json"

	// UnknownExitCode marks a subprocess whose exit status could not be determined.
	UnknownExitCode = -1
)

// FileTarget is a caller-supplied test file reference that already passed path validation.
// It is built per request, consumed once by the command builder, then discarded.
type FileTarget struct {
	FilePath    string
	LineNumbers []int
}

// Argument renders the target as the single trailing subprocess argument,
// joining line numbers with colons in input order: "spec/a_spec.rb:37:87".
func (target FileTarget) Argument() string {
	if len(target.LineNumbers) == 0 {
		return target.FilePath
	}
	segments := make([]string, 0, len(target.LineNumbers)+1)
	segments = append(segments, target.FilePath)
	for _, lineNumber := range target.LineNumbers {
		segments = append(segments, strconv.Itoa(lineNumber))
	}
	return strings.Join(segments, ":")
}

// ExecutionResult captures one completed subprocess run. It is produced exactly
// once per request and never mutated. A non-zero exit code is data, not an error.
type ExecutionResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}
