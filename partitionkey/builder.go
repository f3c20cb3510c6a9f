/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package partitionkey

import (
	"fmt"

	"github.com/suparena/cleardata/errors"
)

const builderName = "partitionkey.Builder"

// Builder assembles a hierarchical key level by level. The first misuse is
// kept and returned by Build; later calls are ignored.
//
//	key, err := partitionkey.WithLevel1("tenant-1").AddLevel2("user-9").Build()
type Builder struct {
	values []Value
	err    error
}

// WithLevel1 starts a key with its top level.
func WithLevel1(v any) *Builder {
	b := &Builder{}
	seg, err := ValueOf(v)
	if err != nil {
		b.err = err
		return b
	}
	b.values = append(b.values, seg)
	return b
}

// AddLevel2 appends the second level. It fails if level 2 is already set.
func (b *Builder) AddLevel2(v any) *Builder {
	return b.add(2, v)
}

// AddLevel3 appends the third level. It fails unless level 2 is set.
func (b *Builder) AddLevel3(v any) *Builder {
	return b.add(3, v)
}

func (b *Builder) add(level int, v any) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case len(b.values) >= level:
		b.err = errors.NewStateError(builderName, fmt.Sprintf("level %d is already set", level))
		return b
	case len(b.values) < level-1:
		b.err = errors.NewStateError(builderName, fmt.Sprintf("level %d must be added before level %d", level-1, level))
		return b
	}
	seg, err := ValueOf(v)
	if err != nil {
		b.err = err
		return b
	}
	b.values = append(b.values, seg)
	return b
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}

// Build returns the key, or the first error recorded.
func (b *Builder) Build() (Key, error) {
	if b.err != nil {
		return Key{}, b.err
	}
	if len(b.values) == 0 {
		return Key{}, errors.NewStateError(builderName, "level 1 is required")
	}
	vals := make([]Value, len(b.values))
	copy(vals, b.values)
	return Key{values: vals}, nil
}
