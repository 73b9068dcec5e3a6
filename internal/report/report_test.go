package report

import (
	"strings"
	"testing"

	"github.com/palekiwi-labs/test-runner-mcp/internal/cypress"
	"github.com/palekiwi-labs/test-runner-mcp/internal/types"
)

func TestFormatRSpecTarget(t *testing.T) {
	t.Parallel()

	result := types.ExecutionResult{ExitCode: 1, Stdout: "3 examples, 1 failure", Stderr: "warning: deprecated"}
	formatted := FormatRSpecTarget("spec/a_spec.rb:37:87", result)
	expected := "RSpec Test Results for: spec/a_spec.rb:37:87\nExit Code: 1\n\nOutput:\n3 examples, 1 failure\n\nErrors:\nwarning: deprecated"
	if formatted != expected {
		t.Fatalf("unexpected report:\n%q\nwant:\n%q", formatted, expected)
	}
}

func TestFormatRSpecArgumentsEchoesCommandLine(t *testing.T) {
	t.Parallel()

	result := types.ExecutionResult{ExitCode: 0, Stdout: "ok", Stderr: ""}
	formatted := FormatRSpecArguments("bundle exec rspec --seed 42 spec/a_spec.rb", result)
	if !strings.Contains(formatted, "Command: bundle exec rspec --seed 42 spec/a_spec.rb") {
		t.Fatalf("report does not echo command line: %q", formatted)
	}
	if !strings.Contains(formatted, "Exit Code: 0") {
		t.Fatalf("report does not carry exit code: %q", formatted)
	}
}

func TestFormatCypressCleanOutcome(t *testing.T) {
	t.Parallel()

	results := cypress.Results{
		Stats: cypress.Stats{Suites: 2, Tests: 5, Passes: 4, Pending: 0, Failures: 1, Duration: 14434},
	}
	serialized, serializeError := cypress.SerializeResults(results)
	if serializeError != nil {
		t.Fatalf("SerializeResults error: %v", serializeError)
	}
	outcome := cypress.Outcome{Results: &results, Serialized: serialized}
	formatted := FormatCypress("cypress/e2e/login.cy.js", types.ExecutionResult{ExitCode: 1}, outcome)

	if !strings.Contains(formatted, "Cypress Test Results for: cypress/e2e/login.cy.js") {
		t.Fatalf("report missing header: %q", formatted)
	}
	if !strings.Contains(formatted, "Exit Code: 1") {
		t.Fatalf("report missing exit code: %q", formatted)
	}
	for _, expectedCell := range []string{"SUITES", "FAILURES", "14434 MS"} {
		if !strings.Contains(strings.ToUpper(formatted), expectedCell) {
			t.Fatalf("stats table missing %q:\n%s", expectedCell, formatted)
		}
	}
	if !strings.Contains(formatted, "Results:") {
		t.Fatalf("report missing results section: %q", formatted)
	}
}

func TestFormatCypressDegradedOutcomeKeepsRawOutput(t *testing.T) {
	t.Parallel()

	outcome := cypress.Outcome{DegradedStage: cypress.StageExtract, DegradedDetail: "no JSON found in Cypress output"}
	result := types.ExecutionResult{ExitCode: 0, Stdout: "plain runner noise", Stderr: "dbus failure"}
	formatted := FormatCypress("cypress/e2e/login.cy.js", result, outcome)

	if !strings.Contains(formatted, "degraded at the extract stage") {
		t.Fatalf("report does not name failed stage: %q", formatted)
	}
	if !strings.Contains(formatted, "plain runner noise") {
		t.Fatalf("report dropped stdout: %q", formatted)
	}
	if !strings.Contains(formatted, "dbus failure") {
		t.Fatalf("report dropped stderr: %q", formatted)
	}
	if !strings.Contains(formatted, "Exit Code: 0") {
		t.Fatalf("report altered exit code semantics: %q", formatted)
	}
}
