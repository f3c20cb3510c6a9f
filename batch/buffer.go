/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/partitionkey"
)

// Document is a pending write. Envelopes implement it.
type Document interface {
	GetID() string
	// GetPartitionKey returns the stored partition key projection.
	GetPartitionKey() string
}

// Pending is one bucket: the documents queued for a container under one
// partition key, in insertion order.
type Pending struct {
	Container    string
	PartitionKey partitionkey.Key
	Documents    []Document
}

type bucket struct {
	key  partitionkey.Key
	docs []Document
}

type containerBuckets struct {
	order   []string
	buckets map[string]*bucket
}

// Buffer stages writes grouped by container and partition key.
//
// A Buffer is owned by a single caller. It is not safe for concurrent
// mutation; callers sharing one must synchronize externally.
type Buffer struct {
	order      []string
	containers map[string]*containerBuckets
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{containers: make(map[string]*containerBuckets)}
}

// Add queues docs for container under key. Every document must carry the
// key's projection, and an existing bucket must hold the same key by value.
// On error the buffer is left unchanged.
func (b *Buffer) Add(container string, key partitionkey.Key, docs ...Document) error {
	if strings.TrimSpace(container) == "" {
		return errors.NewConfigurationError("container", "name is required")
	}
	if key.IsZero() {
		return errors.NewValidationError("partitionKey", "a partition key is required")
	}
	if len(docs) == 0 {
		return errors.NewValidationError("documents", "at least one document is required")
	}

	projection := key.Projection()
	for i, d := range docs {
		if isNil(d) {
			return errors.NewValidationError("documents", fmt.Sprintf("document at index %d is nil", i))
		}
		if d.GetPartitionKey() != projection {
			return errors.NewPartitionKeyMismatchError(container, projection, d.GetPartitionKey())
		}
	}

	cb, ok := b.containers[container]
	if !ok {
		cb = &containerBuckets{buckets: make(map[string]*bucket)}
	}
	id := key.NativeString()
	bk, exists := cb.buckets[id]
	if exists && !bk.key.Equal(key) {
		return errors.NewPartitionKeyMismatchError(container, bk.key.String(), key.String())
	}

	if !ok {
		b.containers[container] = cb
		b.order = append(b.order, container)
	}
	if !exists {
		bk = &bucket{key: key}
		cb.buckets[id] = bk
		cb.order = append(cb.order, id)
	}
	bk.docs = append(bk.docs, docs...)
	return nil
}

// Documents returns a copy of the bucket for container and key, or an
// empty slice.
func (b *Buffer) Documents(container string, key partitionkey.Key) []Document {
	cb, ok := b.containers[container]
	if !ok {
		return []Document{}
	}
	bk, ok := cb.buckets[key.NativeString()]
	if !ok {
		return []Document{}
	}
	out := make([]Document, len(bk.docs))
	copy(out, bk.docs)
	return out
}

// Pending returns every non-empty bucket, containers and buckets in the
// order they were first added.
func (b *Buffer) Pending() []Pending {
	var out []Pending
	for _, name := range b.order {
		cb := b.containers[name]
		for _, id := range cb.order {
			bk := cb.buckets[id]
			if len(bk.docs) == 0 {
				continue
			}
			docs := make([]Document, len(bk.docs))
			copy(docs, bk.docs)
			out = append(out, Pending{Container: name, PartitionKey: bk.key, Documents: docs})
		}
	}
	return out
}

// Len returns the number of queued documents across all buckets.
func (b *Buffer) Len() int {
	n := 0
	for _, cb := range b.containers {
		for _, bk := range cb.buckets {
			n += len(bk.docs)
		}
	}
	return n
}

// Clear drops every bucket.
func (b *Buffer) Clear() {
	b.order = nil
	b.containers = make(map[string]*containerBuckets)
}

func isNil(d Document) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
