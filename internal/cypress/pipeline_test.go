package cypress

import (
	"errors"
	"strings"
	"testing"
)

const sampleReportJSON = `{
    "stats": {
        "suites": 1,
        "tests": 1,
        "passes": 0,
        "pending": 0,
        "failures": 1,
        "start": "2025-09-15T10:30:26.416Z",
        "end": "2025-09-15T10:30:40.850Z",
        "duration": 14434
    },
    "tests": [
        {
            "title": "Test title",
            "fullTitle": "Full test title",
            "file": null,
            "duration": 1000,
            "currentRetry": 0,
            "err": {
                "message": "Test error message",
                "name": "CypressError",
                "codeFrame": {
                    "line": 23,
                    "column": 47,
                    "originalFile": "test.cy.js",
                    "relativeFile": "test.cy.js",
                    "absoluteFile": "/path/test.cy.js",
                    "frame": "test code frame",
                    "language": "js"
                }
            }
        }
    ],
    "pending": [],
    "failures": [],
    "passes": []
}`

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		output         string
		expectedResult string
		expectError    bool
	}{
		{name: "json_after_noise", output: "noise\n{\"a\":1}", expectedResult: "{\"a\":1}"},
		{name: "json_at_start", output: "{\"a\":1}", expectedResult: "{\"a\":1}"},
		{name: "no_json", output: "no json here", expectError: true},
		{name: "empty_output", output: "", expectError: true},
		{
			name: "electron_preamble",
			output: "Warning: The following browser launch options were provided but are not supported by electron\n" +
				" - args\n" +
				"[3977:0915/103024.520574:ERROR:dbus/bus.cc:408] Failed to connect to the bus: Address does not contain a colon\n" +
				"{\n  \"stats\": {}\n}",
			expectedResult: "{\n  \"stats\": {}\n}",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			extracted, extractError := ExtractJSON(testCase.output)
			if testCase.expectError {
				if !errors.Is(extractError, ErrNoJSONFound) {
					t.Fatalf("expected ErrNoJSONFound, got %v", extractError)
				}
				return
			}
			if extractError != nil {
				t.Fatalf("ExtractJSON error: %v", extractError)
			}
			if extracted != testCase.expectedResult {
				t.Fatalf("expected %q, got %q", testCase.expectedResult, extracted)
			}
		})
	}
}

func TestParseResults(t *testing.T) {
	t.Parallel()

	results, parseError := ParseResults(sampleReportJSON)
	if parseError != nil {
		t.Fatalf("ParseResults error: %v", parseError)
	}
	if results.Stats.Suites != 1 || results.Stats.Tests != 1 || results.Stats.Failures != 1 {
		t.Fatalf("unexpected stats: %+v", results.Stats)
	}
	if results.Stats.Duration != 14434 {
		t.Fatalf("expected duration 14434, got %d", results.Stats.Duration)
	}
	if len(results.Tests) != 1 {
		t.Fatalf("expected one test record, got %d", len(results.Tests))
	}
	record := results.Tests[0]
	if record.Title != "Test title" || record.FullTitle != "Full test title" {
		t.Fatalf("unexpected titles: %+v", record)
	}
	if record.File != nil {
		t.Fatalf("expected null file, got %v", *record.File)
	}
	if record.Duration == nil || *record.Duration != 1000 {
		t.Fatalf("unexpected duration: %v", record.Duration)
	}
	if record.Err == nil || record.Err.Name != "CypressError" {
		t.Fatalf("unexpected error payload: %+v", record.Err)
	}
	if record.Err.CodeFrame == nil || record.Err.CodeFrame.Line != 23 || record.Err.CodeFrame.Column != 47 {
		t.Fatalf("unexpected code frame: %+v", record.Err.CodeFrame)
	}
}

func TestParseResultsRejectsStructuralMismatch(t *testing.T) {
	t.Parallel()

	if _, parseError := ParseResults(`{"stats": "not an object"}`); parseError == nil {
		t.Fatalf("expected parse failure for mismatched stats type")
	}
	if _, parseError := ParseResults(`{`); parseError == nil {
		t.Fatalf("expected parse failure for truncated JSON")
	}
}

func TestFilterResultsPreservesEveryField(t *testing.T) {
	t.Parallel()

	parsed, parseError := ParseResults(sampleReportJSON)
	if parseError != nil {
		t.Fatalf("ParseResults error: %v", parseError)
	}
	filtered := FilterResults(parsed)
	if filtered.Stats != parsed.Stats {
		t.Fatalf("stats altered by filter: %+v vs %+v", filtered.Stats, parsed.Stats)
	}
	if len(filtered.Tests) != len(parsed.Tests) {
		t.Fatalf("record count altered by filter")
	}
	original := parsed.Tests[0]
	projected := filtered.Tests[0]
	if projected.Title != original.Title || projected.FullTitle != original.FullTitle || projected.CurrentRetry != original.CurrentRetry {
		t.Fatalf("record fields altered by filter: %+v vs %+v", projected, original)
	}
	if projected.Err == nil || projected.Err.Message != original.Err.Message || projected.Err.CodeFrame == nil {
		t.Fatalf("error payload altered by filter: %+v", projected.Err)
	}
}

func TestProcessFullPipeline(t *testing.T) {
	t.Parallel()

	stdout := "preamble noise\n" + sampleReportJSON + "\n"
	outcome := Process(stdout)
	if outcome.Degraded() {
		t.Fatalf("unexpected degradation: %s (%s)", outcome.DegradedStage, outcome.DegradedDetail)
	}
	if outcome.Results == nil || outcome.Results.Stats.Tests != 1 {
		t.Fatalf("unexpected results: %+v", outcome.Results)
	}
	if !strings.Contains(outcome.Serialized, "\"fullTitle\": \"Full test title\"") {
		t.Fatalf("serialized output missing record: %s", outcome.Serialized)
	}
}

func TestProcessStripsANSISequences(t *testing.T) {
	t.Parallel()

	stdout := "\x1b[32mall green\x1b[0m\n" + sampleReportJSON
	outcome := Process(stdout)
	if outcome.Degraded() {
		t.Fatalf("unexpected degradation: %s (%s)", outcome.DegradedStage, outcome.DegradedDetail)
	}
}

func TestProcessDegradesPerStage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		stdout        string
		expectedStage string
	}{
		{name: "no_json_degrades_extract", stdout: "Some output without JSON", expectedStage: StageExtract},
		{name: "bad_json_degrades_parse", stdout: "noise\n{\"stats\": 7}", expectedStage: StageParse},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			outcome := Process(testCase.stdout)
			if !outcome.Degraded() {
				t.Fatalf("expected degraded outcome")
			}
			if outcome.DegradedStage != testCase.expectedStage {
				t.Fatalf("expected stage %s, got %s", testCase.expectedStage, outcome.DegradedStage)
			}
			if outcome.DegradedDetail == "" {
				t.Fatalf("expected degradation detail")
			}
		})
	}
}
