/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document

import (
	"encoding/json"
	"reflect"

	"github.com/google/uuid"

	"github.com/suparena/cleardata/registry"
	"github.com/suparena/cleardata/storagemodels"
)

// NewEnvelope wraps entity for storage under partitionKey, the key's
// projection. The id comes from the entity when it implements
// storagemodels.Identifiable with a non-empty id, otherwise a new UUID is
// assigned.
func NewEnvelope[T any](entityType string, entity T, partitionKey string) *storagemodels.Envelope[T] {
	id := entityID(entity)
	if id == "" {
		id = uuid.NewString()
	}
	return &storagemodels.Envelope[T]{
		ID:           id,
		EntityType:   entityType,
		PartitionKey: partitionKey,
		Data:         entity,
	}
}

func entityID[T any](entity T) string {
	if ident, ok := any(entity).(storagemodels.Identifiable); ok && !isNilPointer(entity) {
		return ident.GetID()
	}
	if ident, ok := any(&entity).(storagemodels.Identifiable); ok {
		return ident.GetID()
	}
	return ""
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil())
}

// Register binds T to the entityType discriminator and registers a
// decoder so documents of that type can be read back by DecodeAny.
// It panics on conflicting registrations.
func Register[T any](entityType string) {
	registry.RegisterEntityType[T](entityType)
	if registry.HasDecoder(entityType) {
		return
	}
	registry.RegisterDecoder(entityType, func(raw []byte) (interface{}, error) {
		var env storagemodels.Envelope[T]
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, err
		}
		return &env, nil
	})
}
