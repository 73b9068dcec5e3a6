package cypress

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/acarl005/stripansi"
)

const (
	jsonOpeningBrace = "{"

	// StageExtract through StageSerialize name the pipeline stages in
	// degradation messages.
	StageExtract   = "extract"
	StageParse     = "parse"
	StageSerialize = "serialize"

	serializationIndent = "  "
)

// ErrNoJSONFound reports stdout containing no JSON payload at all.
var ErrNoJSONFound = errors.New("no JSON found in Cypress output")

// ExtractJSON locates the first opening brace in output and returns the
// suffix starting there. Cypress prefixes its JSON report with arbitrary
// runtime noise (browser warnings, dbus errors), all of which is discarded.
func ExtractJSON(output string) (string, error) {
	braceIndex := strings.Index(output, jsonOpeningBrace)
	if braceIndex < 0 {
		return "", ErrNoJSONFound
	}
	return output[braceIndex:], nil
}

// ParseResults deserializes an extracted JSON candidate into Results.
func ParseResults(jsonText string) (Results, error) {
	var results Results
	if parseError := json.Unmarshal([]byte(jsonText), &results); parseError != nil {
		return Results{}, fmt.Errorf("parse Cypress JSON: %w", parseError)
	}
	return results, nil
}

// FilterResults re-projects every test record through an explicit field list.
// It currently retains the full field set; the projection exists as the seam
// where future field reduction happens.
func FilterResults(results Results) Results {
	return Results{
		Stats:    results.Stats,
		Tests:    filterRecords(results.Tests),
		Pending:  filterRecords(results.Pending),
		Failures: filterRecords(results.Failures),
		Passes:   filterRecords(results.Passes),
	}
}

func filterRecords(records []TestRecord) []TestRecord {
	filtered := make([]TestRecord, 0, len(records))
	for _, record := range records {
		filtered = append(filtered, filterRecord(record))
	}
	return filtered
}

func filterRecord(record TestRecord) TestRecord {
	filtered := TestRecord{
		Title:        record.Title,
		FullTitle:    record.FullTitle,
		File:         record.File,
		Duration:     record.Duration,
		CurrentRetry: record.CurrentRetry,
	}
	if record.Err != nil {
		filtered.Err = &TestError{
			Message:   record.Err.Message,
			Name:      record.Err.Name,
			CodeFrame: record.Err.CodeFrame,
		}
	}
	return filtered
}

// SerializeResults pretty-prints filtered results for inclusion in a report.
func SerializeResults(results Results) (string, error) {
	serialized, serializeError := json.MarshalIndent(results, "", serializationIndent)
	if serializeError != nil {
		return "", fmt.Errorf("serialize Cypress results: %w", serializeError)
	}
	return string(serialized), nil
}

// Outcome is the pipeline's verdict over one captured stdout buffer. A
// degraded outcome is still a successful one: DegradedStage and
// DegradedDetail explain which stage gave up and why, and the caller must
// fall back to the raw output.
type Outcome struct {
	Results        *Results
	Serialized     string
	DegradedStage  string
	DegradedDetail string
}

// Degraded reports whether any stage failed.
func (outcome Outcome) Degraded() bool {
	return outcome.DegradedStage != ""
}

// Process runs the full extract, parse, filter, serialize pipeline over one
// captured stdout buffer. ANSI escape sequences are stripped first; they are
// terminal noise and never part of the JSON payload. Process never returns an
// error: failures fold into a degraded Outcome.
func Process(stdout string) Outcome {
	plainOutput := stripansi.Strip(stdout)

	candidate, extractError := ExtractJSON(plainOutput)
	if extractError != nil {
		return Outcome{DegradedStage: StageExtract, DegradedDetail: extractError.Error()}
	}

	results, parseError := ParseResults(candidate)
	if parseError != nil {
		return Outcome{DegradedStage: StageParse, DegradedDetail: parseError.Error()}
	}

	filtered := FilterResults(results)

	serialized, serializeError := SerializeResults(filtered)
	if serializeError != nil {
		return Outcome{Results: &filtered, DegradedStage: StageSerialize, DegradedDetail: serializeError.Error()}
	}

	return Outcome{Results: &filtered, Serialized: serialized}
}
