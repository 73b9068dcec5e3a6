package validate

import "fmt"

// Reason is the closed set of validation failure variants. Each validation
// error carries exactly one reason plus a human-readable detail naming the
// offending token, flag, or character.
type Reason string

const (
	// ReasonInvalidCharacters marks a path containing NUL or a line feed.
	ReasonInvalidCharacters Reason = "invalid-characters"
	// ReasonTraversal marks a path containing a "../" segment.
	ReasonTraversal Reason = "traversal"
	// ReasonWrongKind marks a path whose suffix does not match the requested file kind.
	ReasonWrongKind Reason = "wrong-kind"
	// ReasonMalformedPath marks a path that is the bare required suffix with no stem.
	ReasonMalformedPath Reason = "malformed-path"
	// ReasonNonPositiveLineNumber marks a line number that is zero or negative.
	ReasonNonPositiveLineNumber Reason = "non-positive-line-number"
	// ReasonTooManyArguments marks an argument list exceeding the global length limit.
	ReasonTooManyArguments Reason = "too-many-arguments"
	// ReasonArgumentTooLong marks a single token exceeding the per-token size limit.
	ReasonArgumentTooLong Reason = "argument-too-long"
	// ReasonDangerousCharacter marks a token containing a shell metacharacter.
	ReasonDangerousCharacter Reason = "dangerous-character"
	// ReasonDisallowedFlag marks a flag absent from the allowlist.
	ReasonDisallowedFlag Reason = "disallowed-flag"
	// ReasonMissingValue marks a value-taking flag with no following token.
	ReasonMissingValue Reason = "missing-value"
	// ReasonNonNumericValue marks a value that must parse as a non-negative integer but does not.
	ReasonNonNumericValue Reason = "non-numeric-value"
	// ReasonAbsolutePath marks a flag value that must be relative but is absolute.
	ReasonAbsolutePath Reason = "absolute-path"
	// ReasonDisallowedPrefix marks an output path outside the allowed directory prefixes.
	ReasonDisallowedPrefix Reason = "disallowed-prefix"
	// ReasonWrongValueSuffix marks a flag value missing its required file extension.
	ReasonWrongValueSuffix Reason = "wrong-value-suffix"
)

// ValidationError reports why caller input was rejected. Validation errors are
// the caller's fault, carry zero side effects, and are surfaced verbatim.
type ValidationError struct {
	Reason Reason
	Detail string
}

// Error renders the reason together with its detail.
func (validationError ValidationError) Error() string {
	if validationError.Detail == "" {
		return string(validationError.Reason)
	}
	return fmt.Sprintf("%s: %s", validationError.Reason, validationError.Detail)
}

// NewValidationError creates a ValidationError with a formatted detail message.
func NewValidationError(reason Reason, detailFormat string, detailArguments ...any) error {
	return ValidationError{Reason: reason, Detail: fmt.Sprintf(detailFormat, detailArguments...)}
}
