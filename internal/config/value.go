package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Type is the declared type of a configuration key.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeBool
	TypeList
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "integer"
	case TypeBool:
		return "boolean"
	case TypeList:
		return "list"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Value is a resolved configuration value. The zero Value is unset, which is
// distinct from every real value including false, 0, "" and an empty list.
type Value struct {
	typ Type
	set bool
	s   string
	i   int
	b   bool
	l   []string
}

// Unset is the value of a key with no override and no default.
var Unset = Value{}

// StringValue returns a set string value.
func StringValue(s string) Value { return Value{typ: TypeString, set: true, s: s} }

// IntValue returns a set integer value.
func IntValue(i int) Value { return Value{typ: TypeInt, set: true, i: i} }

// BoolValue returns a set boolean value.
func BoolValue(b bool) Value { return Value{typ: TypeBool, set: true, b: b} }

// ListValue returns a set list value. A nil list is stored as empty.
func ListValue(l ...string) Value {
	return Value{typ: TypeList, set: true, l: append([]string{}, l...)}
}

// IsSet reports whether v holds a real value.
func (v Value) IsSet() bool { return v.set }

// Type returns the value's type. Meaningless for Unset.
func (v Value) Type() Type { return v.typ }

// Str returns the string payload, or "" for other types.
func (v Value) Str() string { return v.s }

// Int returns the integer payload, or 0 for other types.
func (v Value) Int() int { return v.i }

// Bool returns the boolean payload, or false for other types.
func (v Value) Bool() bool { return v.b }

// List returns a copy of the list payload.
func (v Value) List() []string { return slices.Clone(v.l) }

// Equal reports whether v and o hold the same typed value.
func (v Value) Equal(o Value) bool {
	if v.set != o.set {
		return false
	}
	if !v.set {
		return true
	}
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeInt:
		return v.i == o.i
	case TypeBool:
		return v.b == o.b
	case TypeList:
		return slices.Equal(v.l, o.l)
	default:
		return v.s == o.s
	}
}

// Raw renders v in the form accepted by Parse and written to the config file.
func (v Value) Raw() string {
	if !v.set {
		return ""
	}
	switch v.typ {
	case TypeInt:
		return strconv.Itoa(v.i)
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeList:
		return strings.Join(v.l, ",")
	default:
		return v.s
	}
}

// String renders v for display. Unset renders as "None" and lists in brackets.
func (v Value) String() string {
	if !v.set {
		return "None"
	}
	switch v.typ {
	case TypeList:
		return "[" + strings.Join(v.l, ", ") + "]"
	case TypeString:
		return strconv.Quote(v.s)
	default:
		return v.Raw()
	}
}

// Interface returns v as a plain Go value for serialization. Unset becomes nil.
func (v Value) Interface() any {
	if !v.set {
		return nil
	}
	switch v.typ {
	case TypeInt:
		return v.i
	case TypeBool:
		return v.b
	case TypeList:
		return v.List()
	default:
		return v.s
	}
}

var (
	trueWords  = []string{"true", "1", "t", "y", "yes", "on"}
	falseWords = []string{"false", "0", "f", "n", "no", "off"}
)

// Parse coerces raw text into a Value of type t. Surrounding whitespace is
// trimmed and multi-line input is rejected so values survive a file round trip.
func Parse(t Type, raw string) (Value, error) {
	if strings.ContainsAny(raw, "\r\n") {
		return Unset, errors.New("line breaks are not allowed")
	}

	switch t {
	case TypeString:
		return StringValue(strings.TrimSpace(raw)), nil
	case TypeInt:
		i, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Unset, fmt.Errorf("invalid integer %q", raw)
		}
		return IntValue(i), nil
	case TypeBool:
		word := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case slices.Contains(trueWords, word):
			return BoolValue(true), nil
		case slices.Contains(falseWords, word):
			return BoolValue(false), nil
		}
		return Unset, fmt.Errorf("invalid boolean %q", raw)
	case TypeList:
		return ListValue(splitList(raw)...), nil
	default:
		return Unset, fmt.Errorf("unsupported type %s", t)
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
