package errors

import "fmt"

// DocbertError is the structured error type for docbert. It carries
// enough context for logging, CLI presentation, and programmatic
// dispatch (via Kind) without callers needing to parse message text.
type DocbertError struct {
	// Code is the unique error code (e.g. "ERR_603_STORE_CORRUPTION").
	Code string

	// Kind is the taxonomy kind this error belongs to.
	Kind Kind

	// Message is the human-readable error message.
	Message string

	// NotFoundKind/NotFoundName are populated only for KindNotFound
	// errors, naming what was missing (kind="collection", name="notes").
	NotFoundKind string
	NotFoundName string

	// Corruption distinguishes a Store error caused by a payload-length
	// or schema mismatch from an ordinary open/commit failure.
	Corruption bool

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates whether the triggering call alone failed,
	// without poisoning subsequent attempts (only ever true for the
	// encoder's lazy model-load path).
	Retryable bool

	// Suggestion is an actionable remedy for the operator.
	Suggestion string
}

func (e *DocbertError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DocbertError) Unwrap() error {
	return e.Cause
}

// Is enables errors.Is(err, target) to match by code.
func (e *DocbertError) Is(target error) bool {
	t, ok := target.(*DocbertError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail attaches a key-value detail and returns e for chaining.
func (e *DocbertError) WithDetail(key, value string) *DocbertError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion attaches an actionable remedy and returns e for chaining.
func (e *DocbertError) WithSuggestion(suggestion string) *DocbertError {
	e.Suggestion = suggestion
	return e
}

// New creates a DocbertError with kind/retryability derived from code.
func New(code string, message string, cause error) *DocbertError {
	return &DocbertError{
		Code:      code,
		Kind:      kindFromCode(code),
		Message:   message,
		Cause:     cause,
		Retryable: retryableCode(code),
	}
}

// Wrap creates a DocbertError from an existing error, or returns nil
// if err is nil.
func Wrap(code string, err error) *DocbertError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// NotFound builds a KindNotFound error naming what was missing.
func NotFound(code, kind, name string) *DocbertError {
	e := New(code, fmt.Sprintf("%s %q not found", kind, name), nil)
	e.NotFoundKind = kind
	e.NotFoundName = name
	return e
}

// StoreCorruption builds a KindStore error with Corruption set, whose
// only documented remedy is rebuild (spec.md §7).
func StoreCorruption(message string, cause error) *DocbertError {
	e := New(ErrCodeStoreCorruption, message, cause)
	e.Corruption = true
	e.Suggestion = "run 'docbert rebuild' to recreate this store"
	return e
}

// IsRetryable reports whether err is a DocbertError marked retryable.
func IsRetryable(err error) bool {
	de, ok := err.(*DocbertError)
	return ok && de.Retryable
}

// IsCorruption reports whether err is a Store error with Corruption set.
func IsCorruption(err error) bool {
	de, ok := err.(*DocbertError)
	return ok && de.Kind == KindStore && de.Corruption
}

// Of extracts the Kind of err, or "" if err is not a DocbertError.
func Of(err error) Kind {
	de, ok := err.(*DocbertError)
	if !ok {
		return ""
	}
	return de.Kind
}

// Code extracts the error code of err, or "" if not a DocbertError.
func Code(err error) string {
	de, ok := err.(*DocbertError)
	if !ok {
		return ""
	}
	return de.Code
}
