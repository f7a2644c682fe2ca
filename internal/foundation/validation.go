// Package foundation holds small building blocks shared by configuration and
// request validation.
package foundation

import (
	"cmp"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

// Validator checks one aspect of a value.
type Validator[T any] func(T) ValidationResult

// ValidationResult contains the result of a validation operation.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// FieldError represents a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (fe FieldError) Error() string {
	if fe.Field != "" {
		return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return fe.Message
}

// Valid creates a successful validation result.
func Valid() ValidationResult {
	return ValidationResult{Valid: true}
}

// Invalid creates a failed validation result with errors.
func Invalid(errs ...FieldError) ValidationResult {
	return ValidationResult{Errors: errs}
}

// Combine merges two validation results.
func (vr ValidationResult) Combine(other ValidationResult) ValidationResult {
	if vr.Valid && other.Valid {
		return Valid()
	}
	all := make([]FieldError, 0, len(vr.Errors)+len(other.Errors))
	all = append(all, vr.Errors...)
	all = append(all, other.Errors...)
	return Invalid(all...)
}

// ToError converts an invalid result into a classified error of category.
// The first failing field is attached as context.
func (vr ValidationResult) ToError(category errors.ErrorCategory) error {
	if vr.Valid {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, fe := range vr.Errors {
		messages = append(messages, fe.Error())
	}
	b := errors.NewError(category, strings.Join(messages, "; "))
	if len(vr.Errors) > 0 {
		b = b.WithContext("field", vr.Errors[0].Field)
		if v := vr.Errors[0].Value; v != nil {
			b = b.WithContext("value", v)
		}
	}
	return b.Build()
}

// ValidatorChain runs validators in order and collects every failure.
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a new validator chain.
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Add appends a validator to the chain.
func (vc *ValidatorChain[T]) Add(validator Validator[T]) *ValidatorChain[T] {
	vc.validators = append(vc.validators, validator)
	return vc
}

// Validate runs all validators in the chain.
func (vc *ValidatorChain[T]) Validate(value T) ValidationResult {
	result := Valid()
	for _, validator := range vc.validators {
		result = result.Combine(validator(value))
	}
	return result
}

// NonNegative validates the value selected by get is zero or greater.
func NonNegative[T any, N cmp.Ordered](field string, get func(T) N) Validator[T] {
	return func(value T) ValidationResult {
		var zero N
		if n := get(value); n < zero {
			return Invalid(FieldError{
				Field:   field,
				Code:    "non_negative",
				Message: "must not be negative",
				Value:   n,
			})
		}
		return Valid()
	}
}

// OneOf validates the value selected by get is one of allowed.
func OneOf[T any, V comparable](field string, get func(T) V, allowed ...V) Validator[T] {
	set := make(map[V]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(value T) ValidationResult {
		v := get(value)
		if _, ok := set[v]; !ok {
			return Invalid(FieldError{
				Field:   field,
				Code:    "one_of",
				Message: fmt.Sprintf("must be one of %v", allowed),
				Value:   v,
			})
		}
		return Valid()
	}
}
