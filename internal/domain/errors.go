package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Contract violations returned by the cascade engine.
var (
	ErrInvalidSelection       = errors.New("invalid selection")
	ErrStalePropertyReference = errors.New("stale property reference")
	ErrEmptyOption            = errors.New("selected option is empty")
	ErrUnknownOption          = errors.New("unknown option")
)

// Validation outcomes reported per field at submit time.
var (
	ErrMissingMainCategory      = errors.New("missing main category")
	ErrMissingSubcategory       = errors.New("missing subcategory")
	ErrIncompletePropertyAnswer = errors.New("incomplete property answer")
)

const (
	FieldMainCategory = "mainCategory"
	FieldSubcategory  = "subcategory"
)

// PropertyField is the field key used for a property's validation message.
func PropertyField(propertyID int) string {
	return "properties." + strconv.Itoa(propertyID)
}

// FieldError is a user-facing validation failure for one form field.
type FieldError struct {
	Field      string `json:"field"`
	PropertyID int    `json:"propertyId,omitempty"`
	Message    string `json:"message"`
	Kind       error  `json:"-"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// ValidationErrors collects at most one FieldError per field.
type ValidationErrors []*FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is and errors.As match any contained field error.
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(v))
	for _, e := range v {
		out = append(out, e)
	}
	return out
}

// ByField returns the messages keyed by field.
func (v ValidationErrors) ByField() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		out[e.Field] = e.Message
	}
	return out
}

// Get returns the error for field, or nil.
func (v ValidationErrors) Get(field string) *FieldError {
	for _, e := range v {
		if e.Field == field {
			return e
		}
	}
	return nil
}

// Fields returns the sorted field keys.
func (v ValidationErrors) Fields() []string {
	out := make([]string, 0, len(v))
	for _, e := range v {
		out = append(out, e.Field)
	}
	sort.Strings(out)
	return out
}
