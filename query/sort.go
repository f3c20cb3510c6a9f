/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/suparena/cleardata/errors"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// SortKey selects the value a document is ordered by. A key is either a
// property access on a document path or a computed function.
type SortKey struct {
	name string
	path string
	fn   func(doc map[string]any) any
}

// Key orders by the value at a dotted document path.
func Key(path string) SortKey {
	return SortKey{name: path, path: path}
}

// DataKey orders by a field of the envelope payload.
func DataKey(name string) SortKey {
	return Key("data." + name)
}

// Computed orders by the result of fn. Computed keys work in memory only
// and cannot be rendered as ORDER BY text.
func Computed(name string, fn func(doc map[string]any) any) SortKey {
	return SortKey{name: name, fn: fn}
}

// Name returns the path or the computed key name.
func (k SortKey) Name() string { return k.name }

// Path returns the property path, or false for a computed key.
func (k SortKey) Path() (string, bool) {
	return k.path, k.fn == nil
}

// Value extracts the key from doc.
func (k SortKey) Value(doc map[string]any) any {
	if k.fn != nil {
		return k.fn(doc)
	}
	v, _ := Lookup(doc, k.path)
	return v
}

// SortStep is one key and direction.
type SortStep struct {
	Key       SortKey
	Direction Direction
}

// SortBuilder is an ordered list of sort steps. An empty builder applies
// no ordering.
type SortBuilder struct {
	steps []SortStep
}

// NewSort returns an empty builder.
func NewSort() *SortBuilder {
	return &SortBuilder{}
}

// ThenBy appends an ascending step.
func (s *SortBuilder) ThenBy(k SortKey) *SortBuilder {
	return s.ThenByIf(true, k)
}

// ThenByIf appends an ascending step when cond holds.
func (s *SortBuilder) ThenByIf(cond bool, k SortKey) *SortBuilder {
	if cond {
		s.steps = append(s.steps, SortStep{Key: k, Direction: Ascending})
	}
	return s
}

// ThenByDescending appends a descending step.
func (s *SortBuilder) ThenByDescending(k SortKey) *SortBuilder {
	return s.ThenByDescendingIf(true, k)
}

// ThenByDescendingIf appends a descending step when cond holds.
func (s *SortBuilder) ThenByDescendingIf(cond bool, k SortKey) *SortBuilder {
	if cond {
		s.steps = append(s.steps, SortStep{Key: k, Direction: Descending})
	}
	return s
}

// IsEmpty reports whether no step was added.
func (s *SortBuilder) IsEmpty() bool {
	return s == nil || len(s.steps) == 0
}

// Steps returns a copy of the steps in order.
func (s *SortBuilder) Steps() []SortStep {
	if s == nil {
		return nil
	}
	out := make([]SortStep, len(s.steps))
	copy(out, s.steps)
	return out
}

// Compare orders two documents by the steps in turn.
func (s *SortBuilder) Compare(a, b map[string]any) int {
	if s == nil {
		return 0
	}
	for _, step := range s.steps {
		c := CompareValues(step.Key.Value(a), step.Key.Value(b))
		if step.Direction == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// ApplyTo returns a sorted copy of docs. The sort is stable and an empty
// builder returns the input order unchanged.
func (s *SortBuilder) ApplyTo(docs []map[string]any) []map[string]any {
	out := make([]map[string]any, len(docs))
	copy(out, docs)
	if s.IsEmpty() {
		return out
	}
	slices.SortStableFunc(out, s.Compare)
	return out
}

// ToSQLOrderBy renders the steps as an ORDER BY clause. Each path is
// passed through mapper and prefixed with prefix, e.g. "c." for Cosmos DB.
// It returns "" when there are no steps and an argument error when a step
// uses a computed key.
func (s *SortBuilder) ToSQLOrderBy(mapper NameMapper, prefix string) (string, error) {
	if s.IsEmpty() {
		return "", nil
	}
	if mapper == nil {
		mapper = Identity
	}
	parts := make([]string, 0, len(s.steps))
	for _, step := range s.steps {
		path, ok := step.Key.Path()
		if !ok {
			return "", errors.NewValidationError("sort",
				fmt.Sprintf("key %q is not a property access and cannot be rendered as ORDER BY", step.Key.Name()))
		}
		parts = append(parts, prefix+mapper(path)+" "+step.Direction.String())
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// String renders the steps for logging and query-shape fingerprints.
func (s *SortBuilder) String() string {
	if s.IsEmpty() {
		return ""
	}
	parts := make([]string, len(s.steps))
	for i, step := range s.steps {
		parts[i] = step.Key.Name() + " " + step.Direction.String()
	}
	return strings.Join(parts, ", ")
}

// CompareValues orders JSON values: missing and null first, then booleans,
// numbers and strings. Values of other kinds compare by their JSON text.
func CompareValues(a, b any) int {
	a, b = normalize(a), normalize(b)
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if c, ok := orderable(a, b); ok {
		return c
	}
	if ra == 0 {
		return 0
	}
	return strings.Compare(literal(a), literal(b))
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	}
	return 4
}
