package payload

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax matches parse errors caused by malformed JSON.
	ErrSyntax = errors.New("payload is not valid JSON")

	// ErrSchema matches parse errors caused by well-formed JSON that lacks
	// the expected data.data sequence or has fields of the wrong type.
	ErrSchema = errors.New("payload does not match the expected structure")
)

// Kind distinguishes the two ways a payload can be rejected.
type Kind int

const (
	KindSyntax Kind = iota
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// ParseError is returned by Parse. Field is the JSON path of the offending
// value when known (for example "data.data" or "data.data[2].id").
type ParseError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	sentinel := ErrSyntax
	if e.Kind == KindSchema {
		sentinel = ErrSchema
	}
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("%v: %s", sentinel, detail)
	}
	return sentinel.Error()
}

// Detail describes the failure without the kind prefix, or "" when nothing
// more specific than the kind is known.
func (e *ParseError) Detail() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	case e.Field != "":
		return e.Field
	case e.Err != nil:
		return e.Err.Error()
	default:
		return ""
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrSyntax) and errors.Is(err, ErrSchema) select by kind.
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrSyntax:
		return e.Kind == KindSyntax
	case ErrSchema:
		return e.Kind == KindSchema
	}
	return false
}

// IsSyntax reports whether err is a syntax parse error.
func IsSyntax(err error) bool {
	return errors.Is(err, ErrSyntax)
}

// IsSchema reports whether err is a schema parse error.
func IsSchema(err error) bool {
	return errors.Is(err, ErrSchema)
}
