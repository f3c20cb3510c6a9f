/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sync"
)

// DecodeFunc decodes a raw JSON document into its typed form.
type DecodeFunc func(raw []byte) (interface{}, error)

// decoderRegistry holds the mapping from an entity type name to the function
// decoding documents of that type.
var (
	decoderRegistry = make(map[string]DecodeFunc)
	decoderMu       sync.RWMutex
)

// RegisterDecoder registers a decode function for an entity type.
// If one is already registered for the name, it panics to prevent accidental overrides.
func RegisterDecoder(entityType string, fn DecodeFunc) {
	decoderMu.Lock()
	defer decoderMu.Unlock()
	if _, exists := decoderRegistry[entityType]; exists {
		panic(fmt.Sprintf("decoder registry: decoder for entity type %q already registered", entityType))
	}
	decoderRegistry[entityType] = fn
}

// HasDecoder reports whether a decoder is registered for the entity type.
func HasDecoder(entityType string) bool {
	decoderMu.RLock()
	defer decoderMu.RUnlock()
	_, ok := decoderRegistry[entityType]
	return ok
}

// GetDecoder returns the registered decode function for the entity type.
// If no function is registered, it returns an error.
func GetDecoder(entityType string) (DecodeFunc, error) {
	decoderMu.RLock()
	defer decoderMu.RUnlock()
	fn, ok := decoderRegistry[entityType]
	if !ok {
		return nil, fmt.Errorf("decoder registry: no decoder registered for entity type %q", entityType)
	}
	return fn, nil
}
