package reporting

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every failed schema lookup.
var ErrNotFound = errors.New("not found")

// NotFoundError names the table or field a lookup could not resolve.
type NotFoundError struct {
	Kind string // "table", "field" or "join"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(kind, name string) error {
	return &NotFoundError{Kind: kind, Name: name}
}
