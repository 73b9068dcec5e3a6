// Package runner is the single I/O boundary of the server: it turns validated
// input into one subprocess invocation, runs it to completion, and captures
// exit code and output. Everything upstream of this package is pure.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/palekiwi-labs/test-runner-mcp/internal/types"
)

const currentDirectorySentinel = "."

// Command is a configured command template pre-split into a program and its
// fixed leading arguments. The tokens are operator-supplied and trusted;
// caller input is only ever appended as additional argv elements, so no shell
// is involved at any point.
type Command struct {
	Program   string
	Arguments []string
}

// ParseCommand splits a whitespace-separated command template into a Command.
func ParseCommand(template string) (Command, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("command template %q contains no program", template)
	}
	return Command{Program: fields[0], Arguments: fields[1:]}, nil
}

// CommandLine renders the full invocation for display in reports.
func (command Command) CommandLine(extraArguments []string) string {
	rendered := make([]string, 0, 1+len(command.Arguments)+len(extraArguments))
	rendered = append(rendered, command.Program)
	rendered = append(rendered, command.Arguments...)
	rendered = append(rendered, extraArguments...)
	return strings.Join(rendered, " ")
}

// Executor spawns subprocesses in an optional working directory. The zero
// value runs commands in the server's own working directory. Executors hold
// no mutable state and are safe for concurrent use.
type Executor struct {
	workingDirectory string
}

// NewExecutor creates an Executor rooted at workingDirectory. The empty
// string and the "." sentinel both mean the current directory.
func NewExecutor(workingDirectory string) Executor {
	return Executor{workingDirectory: workingDirectory}
}

// Run appends extraArguments to the command template, spawns the process, and
// waits for completion while buffering stdout and stderr in full. A non-zero
// exit code is returned as data inside the result; only a failure to spawn is
// an error. No timeout is enforced here: cancellation, if any, arrives
// through the context.
func (executor Executor) Run(ctx context.Context, command Command, extraArguments []string) (types.ExecutionResult, error) {
	argumentList := make([]string, 0, len(command.Arguments)+len(extraArguments))
	argumentList = append(argumentList, command.Arguments...)
	argumentList = append(argumentList, extraArguments...)

	// #nosec G204 -- the program and fixed arguments come from operator
	// configuration; appended arguments have passed validation upstream.
	execCommand := exec.CommandContext(ctx, command.Program, argumentList...)
	if executor.workingDirectory != "" && executor.workingDirectory != currentDirectorySentinel {
		execCommand.Dir = executor.workingDirectory
	}

	var stdoutBuffer bytes.Buffer
	var stderrBuffer bytes.Buffer
	execCommand.Stdout = &stdoutBuffer
	execCommand.Stderr = &stderrBuffer

	runError := execCommand.Run()
	result := types.ExecutionResult{
		ExitCode: 0,
		Stdout:   stdoutBuffer.String(),
		Stderr:   stderrBuffer.String(),
	}
	if runError != nil {
		var exitError *exec.ExitError
		if errors.As(runError, &exitError) {
			result.ExitCode = exitError.ExitCode()
			if result.ExitCode < 0 {
				result.ExitCode = types.UnknownExitCode
			}
			return result, nil
		}
		return types.ExecutionResult{}, fmt.Errorf("spawn %s: %w", command.Program, runError)
	}
	return result, nil
}
