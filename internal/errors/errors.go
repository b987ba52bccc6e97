package errors

import (
	"errors"
	"fmt"
)

// Code represents an error code for categorizing errors
type Code string

const (
	// CodeUnknown indicates an unknown error
	CodeUnknown Code = "unknown"

	// CodeInvalidArgument indicates client specified an invalid argument
	CodeInvalidArgument Code = "invalid_argument"

	// CodeNotFound indicates a requested resource was not found
	CodeNotFound Code = "not_found"

	// CodeAlreadyExists indicates an attempt to create a resource that already exists
	CodeAlreadyExists Code = "already_exists"

	// CodePermissionDenied indicates the caller does not have permission
	CodePermissionDenied Code = "permission_denied"

	// CodeUnauthenticated indicates the request does not have valid authentication
	CodeUnauthenticated Code = "unauthenticated"

	// CodeInternal indicates internal system error
	CodeInternal Code = "internal"

	// CodeUnavailable indicates the service is currently unavailable
	CodeUnavailable Code = "unavailable"

	// CodeUnimplemented indicates operation is not implemented
	CodeUnimplemented Code = "unimplemented"

	// CodeValidation indicates a validation error
	CodeValidation Code = "validation"

	// CodeMalformedDiceFormula indicates text that does not match the dice grammar
	CodeMalformedDiceFormula Code = "malformed_dice_formula"

	// CodeMalformedConversionFormula indicates text that does not match the formula grammar
	CodeMalformedConversionFormula Code = "malformed_conversion_formula"

	// CodeMalformedMagnitude indicates author input that is neither a number nor an accepted formula
	CodeMalformedMagnitude Code = "malformed_magnitude"

	// CodeUnknownCatalogID indicates a stat or status effect id missing from the catalog
	CodeUnknownCatalogID Code = "unknown_catalog_id"

	// CodeDuplicateModifier indicates a stat modifier that is already present
	CodeDuplicateModifier Code = "duplicate_modifier"

	// CodeStageOutOfRange indicates a progressive stage outside the bounded duration
	CodeStageOutOfRange Code = "stage_out_of_range"

	// CodeEvaluation indicates a formula that parsed but could not be resolved
	CodeEvaluation Code = "evaluation_error"
)

// Error represents an application error with code and metadata
type Error struct {
	// Code is the error code
	Code Code

	// Message is the error message
	Message string

	// Cause is the wrapped error
	Cause error

	// Meta contains additional context
	Meta map[string]any
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta adds metadata to the error (builder pattern)
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// New creates a new error with the given code and message
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new error with formatted message
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	// If it's already our error type, preserve the code
	var dndErr *Error
	if errors.As(err, &dndErr) {
		return &Error{
			Code:    dndErr.Code,
			Message: message,
			Cause:   err,
			Meta:    copyMeta(dndErr.Meta),
		}
	}

	// Otherwise, create unknown error
	return &Error{
		Code:    CodeUnknown,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific code
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := Wrap(err, message)
	wrapped.Code = code
	return wrapped
}

// Helper functions for common error types

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a formatted not found error
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

// InvalidArgumentf creates a formatted invalid argument error
func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}

// AlreadyExistsf creates a formatted already exists error
func AlreadyExistsf(format string, args ...any) *Error {
	return Newf(CodeAlreadyExists, format, args...)
}

// Internalf creates a formatted internal error
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Validation creates a validation error
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a formatted validation error
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// MalformedDiceFormula creates a dice grammar error
func MalformedDiceFormula(cause error, text string) *Error {
	return WrapWithCode(cause, CodeMalformedDiceFormula, fmt.Sprintf("malformed dice formula %q", text)).
		WithMeta("text", text)
}

// MalformedConversionFormula creates a formula grammar error
func MalformedConversionFormula(cause error, text string) *Error {
	return WrapWithCode(cause, CodeMalformedConversionFormula, fmt.Sprintf("malformed conversion formula %q", text)).
		WithMeta("text", text)
}

// MalformedMagnitude creates a magnitude classification error
func MalformedMagnitude(cause error, raw string) *Error {
	if cause == nil {
		return Newf(CodeMalformedMagnitude, "malformed magnitude %q", raw).WithMeta("text", raw)
	}
	return WrapWithCode(cause, CodeMalformedMagnitude, fmt.Sprintf("malformed magnitude %q", raw)).
		WithMeta("text", raw)
}

// UnknownCatalogIDf creates an unknown catalog id error
func UnknownCatalogIDf(format string, args ...any) *Error {
	return Newf(CodeUnknownCatalogID, format, args...)
}

// DuplicateModifierf creates a duplicate modifier error
func DuplicateModifierf(format string, args ...any) *Error {
	return Newf(CodeDuplicateModifier, format, args...)
}

// Evaluation wraps a formula resolution failure
func Evaluation(cause error, message string) *Error {
	return WrapWithCode(cause, CodeEvaluation, message)
}

// Error checking functions

// Is checks if the error is of a specific code
func Is(err error, code Code) bool {
	var dndErr *Error
	if errors.As(err, &dndErr) {
		return dndErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return Is(err, CodeInvalidArgument)
}

// IsAlreadyExists checks if the error is an already exists error
func IsAlreadyExists(err error) bool {
	return Is(err, CodeAlreadyExists)
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return Is(err, CodeInternal)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return Is(err, CodeValidation)
}

// IsMalformedDiceFormula checks if the error is a dice grammar error
func IsMalformedDiceFormula(err error) bool {
	return Is(err, CodeMalformedDiceFormula)
}

// IsMalformedConversionFormula checks if the error is a formula grammar error
func IsMalformedConversionFormula(err error) bool {
	return Is(err, CodeMalformedConversionFormula)
}

// IsMalformedMagnitude checks if the error is a magnitude classification error
func IsMalformedMagnitude(err error) bool {
	return Is(err, CodeMalformedMagnitude)
}

// IsUnknownCatalogID checks if the error is an unknown catalog id error
func IsUnknownCatalogID(err error) bool {
	return Is(err, CodeUnknownCatalogID)
}

// IsDuplicateModifier checks if the error is a duplicate modifier error
func IsDuplicateModifier(err error) bool {
	return Is(err, CodeDuplicateModifier)
}

// IsEvaluation checks if the error is a formula resolution error
func IsEvaluation(err error) bool {
	return Is(err, CodeEvaluation)
}

// GetCode returns the error code
func GetCode(err error) Code {
	var dndErr *Error
	if errors.As(err, &dndErr) {
		return dndErr.Code
	}
	return CodeUnknown
}

// GetMeta returns the error metadata
func GetMeta(err error) map[string]any {
	var dndErr *Error
	if errors.As(err, &dndErr) {
		return dndErr.Meta
	}
	return nil
}

// copyMeta creates a copy of the metadata map
func copyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}

	copied := make(map[string]any, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return copied
}
