package config

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKey matches any *UnknownKeyError via errors.Is.
	ErrUnknownKey = errors.New("unknown configuration key")
	// ErrTypeMismatch matches any *TypeMismatchError via errors.Is.
	ErrTypeMismatch = errors.New("value does not match declared type")
	// ErrStoreWrite matches any *StoreWriteError via errors.Is.
	ErrStoreWrite = errors.New("cannot write configuration file")
)

// UnknownKeyError is returned for names that are not declared keys.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown key %q", e.Key)
}

func (e *UnknownKeyError) Is(target error) bool { return target == ErrUnknownKey }

// TypeMismatchError is returned when raw text cannot be coerced to a key's type.
type TypeMismatchError struct {
	Key   string
	Type  Type
	Value string
	Err   error
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("value %q for %s is not a valid %s: %v", e.Value, e.Key, e.Type, e.Err)
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// StoreWriteError is returned when persisting a mutation fails. The mutation is not applied.
type StoreWriteError struct {
	Path string
	Err  error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("write config file %s: %v", e.Path, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

func (e *StoreWriteError) Is(target error) bool { return target == ErrStoreWrite }

// StoreCorruptionWarning describes persisted or environment input that was ignored.
// It is logged and collected, never returned.
type StoreCorruptionWarning struct {
	Path   string
	Line   int
	Key    string
	Reason string
}

func (w StoreCorruptionWarning) String() string {
	switch {
	case w.Line > 0:
		return fmt.Sprintf("%s:%d: %s", w.Path, w.Line, w.Reason)
	case w.Key != "":
		return fmt.Sprintf("%s: %s", w.Key, w.Reason)
	default:
		return w.Reason
	}
}
