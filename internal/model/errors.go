package model

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors shared by the client packages.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrNoSession  = errors.New("not signed in")
	ErrClosed     = errors.New("store closed")
)

// ValidationError carries field-keyed, human-readable messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for k, v := range e.Fields {
			return fmt.Sprintf("validation: %s: %s", k, v)
		}
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation: %d errors (%v)", len(e.Fields), keys)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
