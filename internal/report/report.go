// Package report renders execution results into the text returned to the
// remote caller. Reports always carry the subprocess exit code verbatim and
// never drop captured output, even when post-processing degrades.
package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/palekiwi-labs/test-runner-mcp/internal/cypress"
	"github.com/palekiwi-labs/test-runner-mcp/internal/types"
)

const (
	rspecTargetReportFormat    = "RSpec Test Results for: %s\nExit Code: %d\n\nOutput:\n%s\n\nErrors:\n%s"
	rspecArgumentsReportFormat = "RSpec Test Results\nCommand: %s\nExit Code: %d\n\nOutput:\n%s\n\nErrors:\n%s"
	cypressReportHeaderFormat  = "Cypress Test Results for: %s\nExit Code: %d\n\n"
	cypressResultsSection      = "Results:\n"
	degradedExplanationFormat  = "Post-processing degraded at the %s stage: %s\nThe raw runner output follows.\n\nOutput:\n%s\n\nErrors:\n%s"
	statsTableTitle            = "Run Summary"
	millisecondsFormat         = "%d ms"
)

// FormatRSpecTarget renders the report for a single-file RSpec run. The
// target argument is the colon-joined path and line numbers handed to the
// subprocess.
func FormatRSpecTarget(targetArgument string, result types.ExecutionResult) string {
	return fmt.Sprintf(rspecTargetReportFormat, targetArgument, result.ExitCode, result.Stdout, result.Stderr)
}

// FormatRSpecArguments renders the report for a raw-argument RSpec run,
// echoing the effective command line.
func FormatRSpecArguments(commandLine string, result types.ExecutionResult) string {
	return fmt.Sprintf(rspecArgumentsReportFormat, commandLine, result.ExitCode, result.Stdout, result.Stderr)
}

// FormatCypress renders the report for a Cypress run. A clean pipeline
// outcome yields a stats table plus the serialized filtered results; a
// degraded outcome names the failed stage and includes the raw stdout and
// stderr verbatim. In both cases the exit code is reported unchanged.
func FormatCypress(filePath string, result types.ExecutionResult, outcome cypress.Outcome) string {
	var reportBuilder strings.Builder
	reportBuilder.WriteString(fmt.Sprintf(cypressReportHeaderFormat, filePath, result.ExitCode))
	if outcome.Degraded() {
		reportBuilder.WriteString(fmt.Sprintf(degradedExplanationFormat, outcome.DegradedStage, outcome.DegradedDetail, result.Stdout, result.Stderr))
		return reportBuilder.String()
	}
	reportBuilder.WriteString(renderStatsTable(outcome.Results.Stats))
	reportBuilder.WriteString("\n")
	reportBuilder.WriteString(cypressResultsSection)
	reportBuilder.WriteString(outcome.Serialized)
	reportBuilder.WriteString("\n")
	return reportBuilder.String()
}

// renderStatsTable renders the run statistics as an ASCII table.
func renderStatsTable(stats cypress.Stats) string {
	var tableBuffer strings.Builder
	tableWriter := table.NewWriter()
	tableWriter.SetOutputMirror(&tableBuffer)
	tableWriter.SetTitle(statsTableTitle)
	tableWriter.AppendHeader(table.Row{"Suites", "Tests", "Passes", "Pending", "Failures", "Duration"})
	tableWriter.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suites", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passes", Align: text.AlignRight},
		{Name: "Pending", Align: text.AlignRight},
		{Name: "Failures", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})
	tableWriter.AppendRow(table.Row{
		stats.Suites,
		stats.Tests,
		stats.Passes,
		stats.Pending,
		stats.Failures,
		fmt.Sprintf(millisecondsFormat, stats.Duration),
	})
	tableWriter.Render()
	return tableBuffer.String()
}
