package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrNetwork     = errors.New("network error")
	ErrParse       = errors.New("parse error")
	ErrPersistence = errors.New("persistence error")
)

// StatusError is a non-success response from the legacy API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("legacy: bad status %d", e.Status)
	}
	return fmt.Sprintf("legacy: bad status %d: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrNetwork }

// ParseError reports a field that could not be mapped into the canonical schema.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

type Kind string

const (
	KindNone        Kind = ""
	KindNotFound    Kind = "not_found"
	KindNetwork     Kind = "network"
	KindParse       Kind = "parse"
	KindPersistence Kind = "persistence"
	KindUnknown     Kind = "unknown"
)

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	}
	return KindUnknown
}
