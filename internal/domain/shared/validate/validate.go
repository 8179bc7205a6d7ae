package validate

import (
	"fmt"
	"strings"
)

// FieldError ties a violated rule to the input field that caused it, so the
// client can correct input without guessing.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is the aggregate result of a validator pipeline.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Validator is one step of an ordered validation pipeline. Steps are pure:
// they inspect input and report field errors, never mutate state.
type Validator func() *FieldError

// Run executes validators in order and collects every failure.
func Run(validators ...Validator) error {
	var errs Errors
	for _, v := range validators {
		if fe := v(); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Field builds a failing step when cond is true.
func Field(field string, cond bool, format string, args ...any) Validator {
	return func() *FieldError {
		if !cond {
			return nil
		}
		return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
	}
}
