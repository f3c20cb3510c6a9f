/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package partitionkey

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/suparena/cleardata/errors"
)

// MaxLevels is the deepest hierarchical partition key a container supports.
const MaxLevels = 3

// DefaultSeparator joins multi-level keys in their stored projection.
const DefaultSeparator = "|"

// Kind is the scalar type of one partition key segment.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Value is one typed segment of a partition key.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// String returns a segment holding s.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns a segment holding i.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a segment holding f.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool returns a segment holding b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// ValueOf converts a supported Go scalar into a segment.
func ValueOf(v any) (Value, error) {
	switch tv := v.(type) {
	case Value:
		return tv, nil
	case string:
		return String(tv), nil
	case int:
		return Int(int64(tv)), nil
	case int32:
		return Int(int64(tv)), nil
	case int64:
		return Int(tv), nil
	case float32:
		return Float(float64(tv)), nil
	case float64:
		return Float(tv), nil
	case bool:
		return Bool(tv), nil
	}
	return Value{}, errors.NewValidationError("partitionKey", fmt.Sprintf("unsupported partition key type %T", v))
}

// Kind reports the scalar type of the segment.
func (v Value) Kind() Kind { return v.kind }

// Interface returns the segment as a plain Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	}
	return v.s
}

// Text renders the segment without quoting.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return v.s
}

// Equal compares kind and value.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f || (math.IsNaN(v.f) && math.IsNaN(other.f))
	case KindBool:
		return v.b == other.b
	}
	return v.s == other.s
}

// Key is an immutable ordered list of 1 to 3 partition key segments.
// The zero Key is invalid and is only used to mean "no partition key".
type Key struct {
	values []Value
}

// New builds a key of 1 to 3 levels. Each value must be a string, an
// integer, a float or a bool.
func New(values ...any) (Key, error) {
	if len(values) == 0 {
		return Key{}, errors.NewConfigurationError("partitionKey", "at least one level is required")
	}
	if len(values) > MaxLevels {
		return Key{}, errors.NewConfigurationError("partitionKey",
			fmt.Sprintf("at most %d levels are supported, got %d", MaxLevels, len(values)))
	}

	segs := make([]Value, 0, len(values))
	for _, v := range values {
		seg, err := ValueOf(v)
		if err != nil {
			return Key{}, err
		}
		segs = append(segs, seg)
	}
	return Key{values: segs}, nil
}

// Create1 builds a single-level key.
func Create1(v1 any) (Key, error) { return New(v1) }

// Create2 builds a two-level key.
func Create2(v1, v2 any) (Key, error) { return New(v1, v2) }

// Create3 builds a three-level key.
func Create3(v1, v2, v3 any) (Key, error) { return New(v1, v2, v3) }

// From builds a single-level key from a bare scalar. It panics on an
// unsupported type and is meant for literals at call sites.
func From(v any) Key {
	k, err := New(v)
	if err != nil {
		panic(err)
	}
	return k
}

// MustNew is like New but panics on error.
func MustNew(values ...any) Key {
	k, err := New(values...)
	if err != nil {
		panic(err)
	}
	return k
}

// FromDelimited splits s on sep into string segments.
func FromDelimited(s, sep string) (Key, error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	parts := strings.Split(s, sep)
	if len(parts) > MaxLevels {
		return Key{}, errors.NewConfigurationError("partitionKey",
			fmt.Sprintf("%q splits into %d levels, at most %d are supported", s, len(parts), MaxLevels))
	}
	values := make([]any, len(parts))
	for i, p := range parts {
		values[i] = p
	}
	return New(values...)
}

// IsZero reports whether the key has no levels.
func (k Key) IsZero() bool { return len(k.values) == 0 }

// Levels returns the number of segments.
func (k Key) Levels() int { return len(k.values) }

// Segments returns a copy of the typed segments.
func (k Key) Segments() []Value {
	out := make([]Value, len(k.values))
	copy(out, k.values)
	return out
}

// Values returns the segments as plain Go values.
func (k Key) Values() []any {
	out := make([]any, len(k.values))
	for i, v := range k.values {
		out[i] = v.Interface()
	}
	return out
}

// Equal compares two keys segment by segment.
func (k Key) Equal(other Key) bool {
	if len(k.values) != len(other.values) {
		return false
	}
	for i := range k.values {
		if !k.values[i].Equal(other.values[i]) {
			return false
		}
	}
	return true
}

// String renders the key as a JSON array, e.g. ["tenant-1","user-9"].
func (k Key) String() string {
	return k.NativeString()
}

// NativeString is the type-preserving rendering used as a bucket key.
// "1" and 1 render differently.
func (k Key) NativeString() string {
	b, err := json.Marshal(k.Values())
	if err != nil {
		// NaN and Inf are the only values json refuses.
		parts := make([]string, len(k.values))
		for i, v := range k.values {
			parts[i] = v.Text()
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return string(b)
}

// Projection is the string stored in a document's partitionKey field:
// the bare value for a single level, the levels joined by "|" otherwise.
func (k Key) Projection() string {
	parts := make([]string, len(k.values))
	for i, v := range k.values {
		parts[i] = v.Text()
	}
	return strings.Join(parts, DefaultSeparator)
}

// ToNative converts the key to the Cosmos DB SDK representation. Single
// level keys map to a scalar key, deeper keys are appended level by level.
func (k Key) ToNative() azcosmos.PartitionKey {
	if len(k.values) == 0 {
		return azcosmos.NewPartitionKey()
	}
	if len(k.values) == 1 {
		v := k.values[0]
		switch v.kind {
		case KindInt:
			return azcosmos.NewPartitionKeyNumber(float64(v.i))
		case KindFloat:
			return azcosmos.NewPartitionKeyNumber(v.f)
		case KindBool:
			return azcosmos.NewPartitionKeyBool(v.b)
		}
		return azcosmos.NewPartitionKeyString(v.s)
	}

	pk := azcosmos.NewPartitionKey()
	for _, v := range k.values {
		switch v.kind {
		case KindInt:
			pk = pk.AppendNumber(float64(v.i))
		case KindFloat:
			pk = pk.AppendNumber(v.f)
		case KindBool:
			pk = pk.AppendBool(v.b)
		default:
			pk = pk.AppendString(v.s)
		}
	}
	return pk
}
