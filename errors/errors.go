package errors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents broken invariants that should stop the current operation
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Graph and validation taxonomy. Every mutating call on the graph returns one of
// these (wrapped with context) when it refuses the mutation.
var (
	ErrUnknownNodeType       = errors.New("unknown node type")
	ErrNodeNotFound          = errors.New("node not found")
	ErrPortNotFound          = errors.New("port not found")
	ErrPortAlreadyConnected  = errors.New("port already connected")
	ErrIncompatiblePortTypes = errors.New("incompatible port types")
	ErrInvalidConnection     = errors.New("invalid connection")
	ErrValidationFailed      = errors.New("validation failed")
)

// Registry and configuration errors
var (
	ErrDuplicateNodeType = errors.New("node type already registered")
	ErrInvalidNodeType   = errors.New("invalid node type definition")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrMissingConfig     = errors.New("missing required configuration")
	ErrInvalidData       = errors.New("invalid data format")
	ErrParsingFailed     = errors.New("parsing failed")
)

// Collaborator errors
var (
	ErrOperationTimeout   = errors.New("operation timeout")
	ErrOperationInFlight  = errors.New("operation already in progress")
	ErrCollaboratorFailed = errors.New("collaborator call failed")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// ValidationFailedError carries the path to message map produced by a
// validation pass. It matches ErrValidationFailed through errors.Is.
type ValidationFailedError struct {
	Errors map[string]string
}

// NewValidationFailed copies errs so later changes by the caller do not leak in.
func NewValidationFailed(errs map[string]string) *ValidationFailedError {
	copied := make(map[string]string, len(errs))
	for k, v := range errs {
		copied[k] = v
	}
	return &ValidationFailedError{Errors: copied}
}

// Error implements the error interface
func (e *ValidationFailedError) Error() string {
	if len(e.Errors) == 0 {
		return ErrValidationFailed.Error()
	}
	paths := make([]string, 0, len(e.Errors))
	for path := range e.Errors {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return fmt.Sprintf("%s: %d error(s) at %s", ErrValidationFailed.Error(), len(paths), strings.Join(paths, ", "))
}

// Is reports whether target is ErrValidationFailed
func (e *ValidationFailedError) Is(target error) bool {
	return target == ErrValidationFailed
}

// ValidationErrors extracts the error map from err, if err carries one.
func ValidationErrors(err error) (map[string]string, bool) {
	var vf *ValidationFailedError
	if errors.As(err, &vf) {
		return vf.Errors, true
	}
	return nil, false
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	return errors.Is(err, ErrOperationTimeout) ||
		errors.Is(err, ErrCollaboratorFailed) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsFatal checks if an error is fatal
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return false
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	for _, sentinel := range []error{
		ErrUnknownNodeType,
		ErrNodeNotFound,
		ErrPortNotFound,
		ErrPortAlreadyConnected,
		ErrIncompatiblePortTypes,
		ErrInvalidConnection,
		ErrValidationFailed,
		ErrInvalidConfig,
		ErrInvalidData,
		ErrParsingFailed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ErrorTransient
	case IsFatal(err):
		return ErrorFatal
	case IsInvalid(err):
		return ErrorInvalid
	default:
		return ErrorTransient
	}
}

// Is mirrors errors.Is so callers need a single errors import
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As mirrors errors.As
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New mirrors errors.New
func New(text string) error {
	return errors.New(text)
}

func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// Invalidf builds an invalid error around sentinel with a formatted detail,
// keeping errors.Is(err, sentinel) true.
func Invalidf(sentinel error, component, method, format string, args ...any) error {
	detail := fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
	return WrapInvalid(detail, component, method, "precondition")
}
