// Package cypress normalizes the noisy stdout of a Cypress run into the
// structured report emitted by its JSON reporter. The pipeline is pure and
// degrades to raw text at every stage.
package cypress

// Stats summarizes one Cypress run. The field set mirrors the upstream
// reporter schema exactly.
type Stats struct {
	Suites   int    `json:"suites"`
	Tests    int    `json:"tests"`
	Passes   int    `json:"passes"`
	Pending  int    `json:"pending"`
	Failures int    `json:"failures"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration int    `json:"duration"`
}

// CodeFrame is the structured source-location snippet attached to a failing
// test's error.
type CodeFrame struct {
	Line         int    `json:"line"`
	Column       int    `json:"column"`
	OriginalFile string `json:"originalFile"`
	RelativeFile string `json:"relativeFile"`
	AbsoluteFile string `json:"absoluteFile"`
	Frame        string `json:"frame"`
	Language     string `json:"language"`
}

// TestError describes why a test failed.
type TestError struct {
	Message   string     `json:"message"`
	Name      string     `json:"name"`
	CodeFrame *CodeFrame `json:"codeFrame,omitempty"`
}

// TestRecord is one executed, pending, or failed test.
type TestRecord struct {
	Title        string     `json:"title"`
	FullTitle    string     `json:"fullTitle"`
	File         *string    `json:"file"`
	Duration     *int       `json:"duration"`
	CurrentRetry int        `json:"currentRetry"`
	Err          *TestError `json:"err,omitempty"`
}

// Results is the full parsed report.
type Results struct {
	Stats    Stats        `json:"stats"`
	Tests    []TestRecord `json:"tests"`
	Pending  []TestRecord `json:"pending"`
	Failures []TestRecord `json:"failures"`
	Passes   []TestRecord `json:"passes"`
}
