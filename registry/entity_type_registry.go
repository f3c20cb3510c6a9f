/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/suparena/cleardata/errors"
)

// EntityTyper is implemented by entities that name their own discriminator.
type EntityTyper interface {
	EntityType() string
}

// entityTypeRegistry maps Go types to the discriminator stored in each
// document's entityType field, and back.

var (
	entityTypes = make(map[reflect.Type]string)
	typesByName = make(map[string]reflect.Type)
	mu          sync.RWMutex
)

// RegisterEntityType associates a Go type T with the discriminator name.
// Registering the same pair twice is a no-op; reusing a name for another
// type, or another name for the same type, panics.
func RegisterEntityType[T any](name string) {
	if name == "" {
		panic("entity type registry: name is required")
	}
	t := typeOf[T]()

	mu.Lock()
	defer mu.Unlock()
	if existing, ok := entityTypes[t]; ok && existing != name {
		panic(fmt.Sprintf("entity type registry: %v already registered as %q", t, existing))
	}
	if other, ok := typesByName[name]; ok && other != t {
		panic(fmt.Sprintf("entity type registry: %q already registered for %v", name, other))
	}
	entityTypes[t] = name
	typesByName[name] = t
}

// EntityTypeOf returns the discriminator for T: the name T reports through
// EntityTyper, else the registered name.
func EntityTypeOf[T any]() (string, error) {
	var zero T
	if et, ok := any(zero).(EntityTyper); ok && !isNilPointer(zero) {
		if name := et.EntityType(); name != "" {
			return name, nil
		}
	}
	if et, ok := any(&zero).(EntityTyper); ok {
		if name := et.EntityType(); name != "" {
			return name, nil
		}
	}

	t := typeOf[T]()
	mu.RLock()
	defer mu.RUnlock()
	if name, ok := entityTypes[t]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w %v", errors.ErrNoEntityType, t)
}

// LookupEntityType returns the Go type registered under name.
func LookupEntityType(name string) (reflect.Type, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := typesByName[name]
	return t, ok
}

// EntityTypes returns every registered discriminator.
func EntityTypes() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(typesByName))
	for name := range typesByName {
		out = append(out, name)
	}
	return out
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
