package domain

import (
	"errors"
	"fmt"
)

// The error taxonomy every public operation maps onto. Handlers translate
// these into structured payloads; nothing else crosses the API boundary.

// ValidationError reports an unknown product, mode, or out-of-range
// parameter. Surfaced immediately with the valid options, never retried.
type ValidationError struct {
	Field   string
	Message string
	Valid   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError listing the valid options.
func NewValidationError(field, message string, valid []string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Valid: valid}
}

// UpstreamUnavailable reports an unreachable or failing external
// collaborator (ML forecast service, public-holiday source).
type UpstreamUnavailable struct {
	Upstream string
	Err      error
}

func (e *UpstreamUnavailable) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Upstream, e.Err)
}

func (e *UpstreamUnavailable) Unwrap() error { return e.Err }

// DataAbsent reports that no historical data exists for the requested
// scope. Distinct from a zero-valued result.
type DataAbsent struct {
	Scope string
}

func (e *DataAbsent) Error() string {
	return fmt.Sprintf("no historical data for %s; seed transactions first", e.Scope)
}

// ConfigurationInconsistency reports a product present in transactions
// but missing from the catalog. Logged and skipped, never fatal.
type ConfigurationInconsistency struct {
	Product string
}

func (e *ConfigurationInconsistency) Error() string {
	return fmt.Sprintf("product %q has transactions but no catalog entry", e.Product)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDataAbsent reports whether err is a DataAbsent error.
func IsDataAbsent(err error) bool {
	var da *DataAbsent
	return errors.As(err, &da)
}

// IsUpstreamUnavailable reports whether err is an UpstreamUnavailable error.
func IsUpstreamUnavailable(err error) bool {
	var uu *UpstreamUnavailable
	return errors.As(err, &uu)
}
