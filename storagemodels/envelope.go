/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// Identifiable is implemented by entities that carry their own id.
type Identifiable interface {
	GetID() string
}

// Envelope couples an entity with its store metadata. It is persisted as a
// flat JSON object with the entity under "data".
type Envelope[T any] struct {
	ID           string `json:"id"`
	EntityType   string `json:"entityType"`
	PartitionKey string `json:"partitionKey"`
	Data         T      `json:"data"`

	// Store assigned, read only.
	ETag             string `json:"_etag,omitempty"`
	ResourceID       string `json:"_rid,omitempty"`
	SelfLink         string `json:"_self,omitempty"`
	TimestampSeconds int64  `json:"_ts,omitempty"`
}

// GetID returns the document id.
func (e *Envelope[T]) GetID() string { return e.ID }

// GetPartitionKey returns the stored partition key projection.
func (e *Envelope[T]) GetPartitionKey() string { return e.PartitionKey }

// Timestamp is the store's last modified time.
func (e *Envelope[T]) Timestamp() time.Time {
	if e.TimestampSeconds == 0 {
		return time.Time{}
	}
	return time.Unix(e.TimestampSeconds, 0).UTC()
}
