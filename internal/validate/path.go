// Package validate holds the pure input checks guarding subprocess execution:
// a path validator with a per-kind file grammar and a default-deny argument
// sanitizer. Nothing in this package touches the filesystem or spawns anything.
package validate

import "strings"

// FileKind selects the path grammar a test file must satisfy.
type FileKind int

const (
	// FileKindRSpec requires the RSpec spec-file suffix.
	FileKindRSpec FileKind = iota
	// FileKindCypress requires the Cypress spec-file suffix.
	FileKindCypress
)

const (
	rspecFileSuffix   = "_spec.rb"
	cypressFileSuffix = ".cy.js"

	currentDirectoryPrefix   = "./"
	currentDirectorySentinel = "."
	traversalSegment         = "../"
	pathSeparator            = "/"
	forbiddenPathCharacters  = "\x00\n"
)

// Suffix returns the file suffix required by the kind.
func (kind FileKind) Suffix() string {
	if kind == FileKindCypress {
		return cypressFileSuffix
	}
	return rspecFileSuffix
}

// String names the kind for error messages.
func (kind FileKind) String() string {
	if kind == FileKindCypress {
		return "cypress"
	}
	return "rspec"
}

// ValidatePath checks a caller-supplied file path against the grammar of the
// requested kind. Checks run in fixed priority order and the first violation
// wins: forbidden characters, traversal on the raw path, then suffix and stem
// checks on the path with one leading "./" stripped.
func ValidatePath(path string, kind FileKind) error {
	if strings.ContainsAny(path, forbiddenPathCharacters) {
		return NewValidationError(ReasonInvalidCharacters, "path %q contains a forbidden character", path)
	}
	if strings.Contains(path, traversalSegment) {
		return NewValidationError(ReasonTraversal, "path %q contains a directory traversal segment", path)
	}
	strippedPath := strings.TrimPrefix(path, currentDirectoryPrefix)
	if !strings.HasSuffix(strippedPath, kind.Suffix()) {
		return NewValidationError(ReasonWrongKind, "path %q must end in %q for %s tests", path, kind.Suffix(), kind)
	}
	if strippedPath == kind.Suffix() {
		return NewValidationError(ReasonMalformedPath, "path %q has no file name before the %q suffix", path, kind.Suffix())
	}
	return nil
}

// ValidateLineNumbers requires every requested line number to be positive.
// The first non-positive value is named in the error.
func ValidateLineNumbers(lineNumbers []int) error {
	for _, lineNumber := range lineNumbers {
		if lineNumber <= 0 {
			return NewValidationError(ReasonNonPositiveLineNumber, "line number %d must be positive", lineNumber)
		}
	}
	return nil
}

// NormalizeWorkingDirectory rewrites a validated path addressed from the
// project root into one relative to the configured working directory. The "."
// sentinel leaves the path untouched. The configured value is normalized to
// exactly one trailing separator; if the path (with an optional leading "./"
// stripped) starts with that prefix the prefix is removed, otherwise the path
// is returned unchanged.
func NormalizeWorkingDirectory(path string, workingDirectory string) string {
	if workingDirectory == "" || workingDirectory == currentDirectorySentinel {
		return path
	}
	normalizedPrefix := strings.TrimRight(workingDirectory, pathSeparator) + pathSeparator
	strippedPath := strings.TrimPrefix(path, currentDirectoryPrefix)
	if strings.HasPrefix(strippedPath, normalizedPrefix) {
		return strings.TrimPrefix(strippedPath, normalizedPrefix)
	}
	return path
}
