package compiler

import (
	"errors"
	"fmt"

	"github.com/blimu-dev/zod-gen/pkg/openapi"
)

// ErrorKind classifies compile-time failures. None of them is recoverable
// without fixing the input document.
type ErrorKind string

const (
	KindUnresolvedReference      ErrorKind = "UnresolvedReference"
	KindMissingOperationIdentity ErrorKind = "MissingOperationIdentity"
	KindSchemaTooDeep            ErrorKind = "SchemaTooDeep"
)

var (
	// ErrUnresolvedReference matches every unresolvable $ref
	ErrUnresolvedReference = openapi.ErrUnresolvedReference
	// ErrMissingOperationIdentity matches operations that need an operationId to name inline schemas
	ErrMissingOperationIdentity = errors.New("missing operation identity")
	// ErrSchemaTooDeep matches schemas nested beyond the configured depth
	ErrSchemaTooDeep = errors.New("schema too deep")
)

// Error is a compile-time failure naming the operation or schema it concerns
type Error struct {
	Kind ErrorKind
	// Operation names the operation ("getPet" or "GET /pets/{id}") when known
	Operation string
	// Subject is the schema pointer or component being compiled
	Subject string
	// Ref is the offending $ref for UnresolvedReference
	Ref string
	Err error
}

func (e *Error) Error() string {
	where := e.Subject
	if e.Operation != "" {
		where = e.Operation
		if e.Subject != "" {
			where += " (" + e.Subject + ")"
		}
	}
	switch {
	case e.Kind == KindUnresolvedReference:
		return fmt.Sprintf("%s: %s: cannot resolve %q", e.Kind, where, e.Ref)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, where, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, where)
	}
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	switch e.Kind {
	case KindUnresolvedReference:
		return ErrUnresolvedReference
	case KindMissingOperationIdentity:
		return ErrMissingOperationIdentity
	case KindSchemaTooDeep:
		return ErrSchemaTooDeep
	}
	return nil
}

// Is matches the sentinel of the error's kind even when Err wraps something else
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindUnresolvedReference:
		return target == ErrUnresolvedReference
	case KindMissingOperationIdentity:
		return target == ErrMissingOperationIdentity
	case KindSchemaTooDeep:
		return target == ErrSchemaTooDeep
	}
	return false
}

// unresolved converts a resolver failure into a compile error for subject
func unresolved(subject string, err error) error {
	var ue *openapi.UnresolvedError
	if errors.As(err, &ue) {
		return &Error{Kind: KindUnresolvedReference, Subject: subject, Ref: ue.Ref}
	}
	return fmt.Errorf("%s: %w", subject, err)
}

// withOperation attributes a compile error raised below the operation level to operation
func withOperation(operation string, err error) error {
	var ce *Error
	if errors.As(err, &ce) && ce.Operation == "" {
		cp := *ce
		cp.Operation = operation
		return &cp
	}
	return err
}
