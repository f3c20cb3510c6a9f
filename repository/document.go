/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/suparena/cleardata/datastore"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/storagemodels"
)

// KeyFunc derives the partition key an entity is stored under.
type KeyFunc[T any] func(entity T) (partitionkey.Key, error)

// DocumentRepository is CRUD over one container, with partition keys
// derived from the entities themselves.
type DocumentRepository[T any] struct {
	docs      datastore.DocumentContext[T]
	container string
	keyOf     KeyFunc[T]
}

// NewDocumentRepository binds docs to container.
func NewDocumentRepository[T any](docs datastore.DocumentContext[T], container string, keyOf KeyFunc[T]) (*DocumentRepository[T], error) {
	if docs == nil {
		return nil, errors.NewConfigurationError("documents", "a document context is required")
	}
	if strings.TrimSpace(container) == "" {
		return nil, errors.NewConfigurationError("container", "name is required")
	}
	if keyOf == nil {
		return nil, errors.NewConfigurationError("keyFunc", "a key function is required")
	}
	return &DocumentRepository[T]{docs: docs, container: container, keyOf: keyOf}, nil
}

// Container returns the container the repository reads and writes.
func (r *DocumentRepository[T]) Container() string { return r.container }

// KeyOf returns the partition key of entity.
func (r *DocumentRepository[T]) KeyOf(entity T) (partitionkey.Key, error) {
	key, err := r.keyOf(entity)
	if err != nil {
		return partitionkey.Key{}, fmt.Errorf("derive partition key: %w", err)
	}
	return key, nil
}

func (r *DocumentRepository[T]) FindByID(ctx context.Context, id string, key partitionkey.Key) (*T, error) {
	env, err := r.docs.Get(ctx, r.container, id, key)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// FindAll returns one page of entities. Use Page to continue past it.
func (r *DocumentRepository[T]) FindAll(ctx context.Context, opts ...storagemodels.QueryOption) ([]T, error) {
	return r.docs.GetList(ctx, r.container, opts...)
}

func (r *DocumentRepository[T]) Page(ctx context.Context, opts ...storagemodels.QueryOption) (storagemodels.PagedResult[T], error) {
	return r.docs.GetPagedList(ctx, r.container, opts...)
}

// Create stores a new entity and fails if its id is taken.
func (r *DocumentRepository[T]) Create(ctx context.Context, entity T) (*storagemodels.Envelope[T], error) {
	key, err := r.KeyOf(entity)
	if err != nil {
		return nil, err
	}
	return r.docs.Save(ctx, r.container, key, entity)
}

// Save creates or replaces an entity.
func (r *DocumentRepository[T]) Save(ctx context.Context, entity T) (*storagemodels.Envelope[T], error) {
	key, err := r.KeyOf(entity)
	if err != nil {
		return nil, err
	}
	return r.docs.Upsert(ctx, r.container, key, entity)
}

// Update replaces a previously read envelope, conditional on its ETag.
func (r *DocumentRepository[T]) Update(ctx context.Context, env *storagemodels.Envelope[T]) (*storagemodels.Envelope[T], error) {
	if env == nil {
		return nil, errors.NewValidationError("envelope", "is required")
	}
	key, err := r.KeyOf(env.Data)
	if err != nil {
		return nil, err
	}
	return r.docs.Update(ctx, r.container, key, env)
}

func (r *DocumentRepository[T]) Delete(ctx context.Context, id string, key partitionkey.Key) error {
	return r.docs.Delete(ctx, r.container, id, key)
}

// DeletePartition removes every entity stored under key.
func (r *DocumentRepository[T]) DeletePartition(ctx context.Context, key partitionkey.Key) error {
	return r.docs.DeleteAll(ctx, r.container, key)
}

// SaveAll queues entities by their keys and writes them in batches.
func (r *DocumentRepository[T]) SaveAll(ctx context.Context, entities ...T) error {
	for _, e := range entities {
		key, err := r.KeyOf(e)
		if err != nil {
			return err
		}
		if err := r.docs.AddToBatch(r.container, key, e); err != nil {
			return err
		}
	}
	results := r.docs.ExecuteBatch(ctx)
	if failed := results.Failed(); len(failed) > 0 {
		first := failed[0]
		return errors.NewStoreError("SaveAll", first.StatusCode,
			fmt.Errorf("%d of %d batches failed, first %s: %s", len(failed), len(results), first, first.Message))
	}
	return nil
}
