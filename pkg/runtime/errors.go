package runtime

import (
	"errors"
	"fmt"
)

// ErrorKind mirrors the error taxonomy of the generated client
type ErrorKind string

const (
	KindFetch              ErrorKind = "fetch-error"
	KindUnexpectedResponse ErrorKind = "unexpected-response"
	KindParse              ErrorKind = "parse-error"
	KindDeserialization    ErrorKind = "deserialization-error"
	KindMissingSchema      ErrorKind = "missing-schema"
)

// Error is returned by Client.Do for transport failures and by Result.Parse
// for bodies that could not be turned into a value.
type Error struct {
	Kind        ErrorKind
	Status      int
	ContentType string
	// Err is the transport, decoding, deserializer or validation error, when any
	Err error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d", e.Status)
		if e.ContentType != "" {
			msg += ", " + e.ContentType
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k
func IsKind(err error, k ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
