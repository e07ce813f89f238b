package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeResolution     ErrorType = "resolution"
	ErrorTypeParsing        ErrorType = "parsing"
	ErrorTypeFileSystem     ErrorType = "filesystem"
	ErrorTypeConfiguration  ErrorType = "configuration"
	ErrorTypeRepository     ErrorType = "repository"
	ErrorTypeSerialisation  ErrorType = "serialisation"
	ErrorTypeNoSuchSet      ErrorType = "no_such_set"
	ErrorTypeRecursiveSet   ErrorType = "recursive_set"
	ErrorTypeSuggestRestart ErrorType = "suggest_restart"
	ErrorTypeInternal       ErrorType = "internal"
)

// PaludisError represents a structured error with context
type PaludisError struct {
	Type        ErrorType
	Message     string
	Cause       error
	Context     map[string]interface{}
	Suggestions []string
}

// Error implements the error interface. Context keys are printed sorted.
func (e *PaludisError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type, e.Message))

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Caused by: %s", e.Cause.Error()))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var contextParts []string
		for _, k := range keys {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if len(e.Suggestions) > 0 {
		parts = append(parts, fmt.Sprintf("Suggestions: %s", strings.Join(e.Suggestions, "; ")))
	}

	return strings.Join(parts, "\n")
}

// Unwrap returns the underlying cause
func (e *PaludisError) Unwrap() error {
	return e.Cause
}

// Is matches any PaludisError of the same type
func (e *PaludisError) Is(target error) bool {
	if t, ok := target.(*PaludisError); ok {
		return e.Type == t.Type
	}
	return false
}

// Kind returns a value usable as an errors.Is target for a category
func Kind(t ErrorType) error {
	return &PaludisError{Type: t}
}

// IsKind reports whether any error in err's chain has the given category
func IsKind(err error, t ErrorType) bool {
	return errors.Is(err, Kind(t))
}

var defaultSuggestions = map[ErrorType][]string{
	ErrorTypeValidation: {
		"Check the target spec syntax",
		"Verify package names and version requirements",
	},
	ErrorTypeResolution: {
		"Check the unable to make decisions section for unmet constraints",
		"Consider permitting masked packages, downgrades or removals",
	},
	ErrorTypeParsing: {
		"Check the dependency spec syntax",
	},
	ErrorTypeFileSystem: {
		"Check file and directory permissions",
		"Verify paths exist and are accessible",
	},
	ErrorTypeConfiguration: {
		"Check your configuration file syntax",
		"Check PALUDIS_* environment variables",
	},
	ErrorTypeRepository: {
		"Check the repository files listed in your configuration",
	},
	ErrorTypeSerialisation: {
		"The plan file may have been written by a different version",
	},
	ErrorTypeNoSuchSet: {
		"Run 'cave sets' to list known sets",
	},
	ErrorTypeRecursiveSet: {
		"Remove the set that includes itself",
	},
}

func newError(t ErrorType, message string, cause error) *PaludisError {
	return &PaludisError{
		Type:        t,
		Message:     message,
		Cause:       cause,
		Context:     make(map[string]interface{}),
		Suggestions: append([]string(nil), defaultSuggestions[t]...),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *PaludisError {
	return newError(ErrorTypeValidation, message, cause)
}

// NewResolutionError creates a dependency resolution error
func NewResolutionError(message string, cause error) *PaludisError {
	return newError(ErrorTypeResolution, message, cause)
}

// NewParsingError creates a parsing error
func NewParsingError(message string, cause error) *PaludisError {
	return newError(ErrorTypeParsing, message, cause)
}

// NewFileSystemError creates a filesystem error
func NewFileSystemError(message string, cause error) *PaludisError {
	return newError(ErrorTypeFileSystem, message, cause)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string, cause error) *PaludisError {
	return newError(ErrorTypeConfiguration, message, cause)
}

// NewRepositoryError creates a repository error
func NewRepositoryError(message string, cause error) *PaludisError {
	return newError(ErrorTypeRepository, message, cause)
}

// NewSerialisationError creates an error for malformed serialised data
func NewSerialisationError(message string, cause error) *PaludisError {
	return newError(ErrorTypeSerialisation, message, cause)
}

// NewInternalError is for violated invariants
func NewInternalError(message string, cause error) *PaludisError {
	return newError(ErrorTypeInternal, message, cause)
}

// WithContext adds context to an error
func (e *PaludisError) WithContext(key string, value interface{}) *PaludisError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to an error
func (e *PaludisError) WithSuggestion(suggestion string) *PaludisError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// ErrorCollector collects multiple errors and provides summary
type ErrorCollector struct {
	errors []error
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection
func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errors = append(ec.errors, err)
	}
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

// Errors returns all collected errors
func (ec *ErrorCollector) Errors() []error {
	return ec.errors
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (ec *ErrorCollector) Unwrap() []error {
	return ec.errors
}

// Err returns the collector as an error, or nil when empty
func (ec *ErrorCollector) Err() error {
	if !ec.HasErrors() {
		return nil
	}
	return ec
}

// Error returns a combined error message
func (ec *ErrorCollector) Error() string {
	if len(ec.errors) == 0 {
		return ""
	}

	if len(ec.errors) == 1 {
		return ec.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Multiple errors occurred (%d total):", len(ec.errors)))

	for i, err := range ec.errors {
		parts = append(parts, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}

	return strings.Join(parts, "\n")
}

// Summary counts errors by type, looking through wrapping
func (ec *ErrorCollector) Summary() map[ErrorType]int {
	summary := make(map[ErrorType]int)

	for _, err := range ec.errors {
		var paludisErr *PaludisError
		if errors.As(err, &paludisErr) {
			summary[paludisErr.Type]++
		} else {
			summary["unknown"]++
		}
	}

	return summary
}
