package validate

import (
	"strconv"
	"strings"
)

const (
	maximumArgumentCount  = 50
	maximumArgumentLength = 1000

	flagPrefix          = "-"
	absolutePathPrefix  = "/"
	rubySourceSuffix    = ".rb"
	dangerousCharacters = ";&|$`()<>\"'"
)

// valueRule describes what, if anything, a flag consumes after itself.
type valueRule int

const (
	// valueRuleNone is a bare switch consuming no value.
	valueRuleNone valueRule = iota
	// valueRuleFree consumes one value that only needs character sanitization.
	valueRuleFree
	// valueRuleOutputPath consumes a relative, traversal-free path under an allowed directory.
	valueRuleOutputPath
	// valueRuleRequirePath consumes a relative, traversal-free Ruby source path.
	valueRuleRequirePath
	// valueRuleNonNegativeInteger consumes a value parsing as a non-negative integer.
	valueRuleNonNegativeInteger
	// valueRuleOptionalInteger consumes a following non-flag token only when
	// present, in which case it must be numeric.
	valueRuleOptionalInteger
)

// allowedFlags is the default-deny RSpec flag allowlist. It is built once at
// process start and never mutated, so concurrent validations share it freely.
// New flags require an explicit entry here.
var allowedFlags = map[string]valueRule{
	"-b":                valueRuleNone,
	"--backtrace":       valueRuleNone,
	"--color":           valueRuleNone,
	"--no-color":        valueRuleNone,
	"--dry-run":         valueRuleNone,
	"--fail-fast":       valueRuleNone,
	"--no-fail-fast":    valueRuleNone,
	"-w":                valueRuleNone,
	"--warnings":        valueRuleNone,
	"--no-profile":      valueRuleNone,
	"-o":                valueRuleOutputPath,
	"--out":             valueRuleOutputPath,
	"--deprecation-out": valueRuleOutputPath,
	"-r":                valueRuleRequirePath,
	"--require":         valueRuleRequirePath,
	"--seed":            valueRuleNonNegativeInteger,
	"-f":                valueRuleFree,
	"--format":          valueRuleFree,
	"-t":                valueRuleFree,
	"--tag":             valueRuleFree,
	"-e":                valueRuleFree,
	"--example":         valueRuleFree,
	"-P":                valueRuleFree,
	"--pattern":         valueRuleFree,
	"--order":           valueRuleFree,
	"-p":                valueRuleOptionalInteger,
	"--profile":         valueRuleOptionalInteger,
}

// allowedOutputDirectoryPrefixes lists where output-path flag values may point.
var allowedOutputDirectoryPrefixes = []string{"tmp/", "log/", "spec/"}

// ValidateArguments checks a flat caller-supplied token list against the flag
// allowlist and per-flag value grammars. Validation is all-or-nothing: the
// first failing token rejects the entire list. An empty list is valid.
func ValidateArguments(tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) > maximumArgumentCount {
		return NewValidationError(ReasonTooManyArguments, "%d arguments exceed the limit of %d", len(tokens), maximumArgumentCount)
	}
	tokenIndex := 0
	for tokenIndex < len(tokens) {
		currentToken := tokens[tokenIndex]
		if sanitizeError := sanitizeToken(currentToken); sanitizeError != nil {
			return sanitizeError
		}
		if !strings.HasPrefix(currentToken, flagPrefix) {
			// A bare token is a spec file path.
			if pathError := ValidatePath(currentToken, FileKindRSpec); pathError != nil {
				return pathError
			}
			tokenIndex++
			continue
		}
		rule, flagAllowed := allowedFlags[currentToken]
		if !flagAllowed {
			return NewValidationError(ReasonDisallowedFlag, "flag %q is not allowed", currentToken)
		}
		consumedTokens, ruleError := validateFlagValue(currentToken, rule, tokens, tokenIndex)
		if ruleError != nil {
			return ruleError
		}
		tokenIndex += consumedTokens
	}
	return nil
}

// validateFlagValue applies the value rule for the flag at flagIndex and
// reports how many tokens the flag consumed, the flag itself included.
func validateFlagValue(flag string, rule valueRule, tokens []string, flagIndex int) (int, error) {
	switch rule {
	case valueRuleNone:
		return 1, nil
	case valueRuleOptionalInteger:
		if flagIndex+1 >= len(tokens) || strings.HasPrefix(tokens[flagIndex+1], flagPrefix) {
			return 1, nil
		}
		value := tokens[flagIndex+1]
		if sanitizeError := sanitizeToken(value); sanitizeError != nil {
			return 0, sanitizeError
		}
		if parseError := requireNonNegativeInteger(flag, value); parseError != nil {
			return 0, parseError
		}
		return 2, nil
	default:
		if flagIndex+1 >= len(tokens) {
			return 0, NewValidationError(ReasonMissingValue, "flag %q requires a value", flag)
		}
		value := tokens[flagIndex+1]
		if sanitizeError := sanitizeToken(value); sanitizeError != nil {
			return 0, sanitizeError
		}
		switch rule {
		case valueRuleOutputPath:
			if valueError := validateOutputPathValue(flag, value); valueError != nil {
				return 0, valueError
			}
		case valueRuleRequirePath:
			if valueError := validateRequirePathValue(flag, value); valueError != nil {
				return 0, valueError
			}
		case valueRuleNonNegativeInteger:
			if valueError := requireNonNegativeInteger(flag, value); valueError != nil {
				return 0, valueError
			}
		}
		return 2, nil
	}
}

// sanitizeToken applies the character and length checks shared by every token,
// flag or value. The offending metacharacter is named in the error.
func sanitizeToken(token string) error {
	if characterIndex := strings.IndexAny(token, dangerousCharacters); characterIndex >= 0 {
		return NewValidationError(ReasonDangerousCharacter, "argument %q contains dangerous character %q", token, string(token[characterIndex]))
	}
	if len(token) > maximumArgumentLength {
		return NewValidationError(ReasonArgumentTooLong, "argument of %d characters exceeds the limit of %d", len(token), maximumArgumentLength)
	}
	return nil
}

func validateOutputPathValue(flag string, value string) error {
	if strings.Contains(value, traversalSegment) {
		return NewValidationError(ReasonTraversal, "value %q for %s contains a directory traversal segment", value, flag)
	}
	if strings.HasPrefix(value, absolutePathPrefix) {
		return NewValidationError(ReasonAbsolutePath, "value %q for %s must be a relative path", value, flag)
	}
	for _, allowedPrefix := range allowedOutputDirectoryPrefixes {
		if strings.HasPrefix(value, allowedPrefix) {
			return nil
		}
	}
	return NewValidationError(ReasonDisallowedPrefix, "value %q for %s must start with one of %s", value, flag, strings.Join(allowedOutputDirectoryPrefixes, ", "))
}

func validateRequirePathValue(flag string, value string) error {
	if strings.HasPrefix(value, absolutePathPrefix) {
		return NewValidationError(ReasonAbsolutePath, "value %q for %s must be a relative path", value, flag)
	}
	if strings.Contains(value, traversalSegment) {
		return NewValidationError(ReasonTraversal, "value %q for %s contains a directory traversal segment", value, flag)
	}
	if !strings.HasSuffix(value, rubySourceSuffix) {
		return NewValidationError(ReasonWrongValueSuffix, "value %q for %s must end in %q", value, flag, rubySourceSuffix)
	}
	return nil
}

func requireNonNegativeInteger(flag string, value string) error {
	parsedValue, parseError := strconv.Atoi(value)
	if parseError != nil || parsedValue < 0 {
		return NewValidationError(ReasonNonNumericValue, "value %q for %s must be a non-negative integer", value, flag)
	}
	return nil
}
