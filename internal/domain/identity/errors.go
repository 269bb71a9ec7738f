package identity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrIdentityNotFound indicates the identity doesn't exist.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrInvalidInput indicates missing or malformed identity fields.
	ErrInvalidInput = errors.New("invalid identity input")
	// ErrDuplicateExternalRef indicates the external reference is taken.
	ErrDuplicateExternalRef = errors.New("external reference already registered")
	// ErrDuplicateBadgeCode indicates the badge code is taken.
	ErrDuplicateBadgeCode = errors.New("badge code already registered")
)

// ValidationError lists field problems keyed by input field name.
type ValidationError struct {
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
