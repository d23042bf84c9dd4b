package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrCarrier              = errors.New("carrier error")
	ErrNoLabels             = errors.New("no labels created")
	ErrReservationShortfall = errors.New("reservation shortfall")
)

// ValidationError describes a rejected request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CarrierError is a failed label provider call: a non-2xx answer, an unreachable API or an
// unusable 2xx body. StatusCode is http.StatusBadGateway when no answer arrived.
type CarrierError struct {
	Carrier    string
	StatusCode int
	Message    string
	Err        error
}

func (e *CarrierError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("carrier %s error (status %d): %s", e.Carrier, e.StatusCode, msg)
}

func (e *CarrierError) Is(target error) bool {
	return target == ErrCarrier
}

func (e *CarrierError) Unwrap() error {
	return e.Err
}

// ShortfallError reports fewer active reservations than the quantity being shipped.
type ShortfallError struct {
	ProductVariantID int64
	SKU              string
	Needed           int
	Available        int
}

func (e *ShortfallError) Error() string {
	name := e.SKU
	if name == "" {
		name = fmt.Sprintf("variant %d", e.ProductVariantID)
	}
	return fmt.Sprintf("reservation shortfall for %s: needed %d, reserved %d", name, e.Needed, e.Available)
}

func (e *ShortfallError) Is(target error) bool {
	return target == ErrReservationShortfall
}
