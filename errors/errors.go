package errors

import (
	// Go Internal Packages
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for callers that branch on failure mode
// rather than message text.
type Kind int

const (
	Other       Kind = iota // unclassified
	Invalid                 // validation failed or malformed input
	NotFound                // target record does not exist
	Persistence             // record store read/write failed
	Upstream                // provider call failed at transport/protocol level
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case NotFound:
		return "not found"
	case Persistence:
		return "persistence"
	case Upstream:
		return "upstream"
	}
	return "other"
}

// Error is the concrete type produced by E.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a kinded error. err may be nil.
func E(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of err, unwrapping as needed. Unkinded
// errors report Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(kind Kind, err error) bool {
	return err != nil && KindOf(err) == kind
}

// ValidationErrors accumulates per-field validation failures so a
// config or request can be checked in full before reporting.
type ValidationErrors struct {
	fields map[string]string
}

func ValidationErrs() *ValidationErrors {
	return &ValidationErrors{fields: make(map[string]string)}
}

func (v *ValidationErrors) Add(field, msg string) {
	v.fields[field] = msg
}

// Err returns nil when no failures were added.
func (v *ValidationErrors) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, v.fields[k])
	}
	return E(Invalid, strings.Join(parts, "; "), nil)
}
