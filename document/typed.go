/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suparena/cleardata/batch"
	"github.com/suparena/cleardata/datastore"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/query"
	"github.com/suparena/cleardata/registry"
	"github.com/suparena/cleardata/storagemodels"
)

// Typed is the document facade for entity type T. It shares the Store's
// client and batch buffer.
type Typed[T any] struct {
	store      *Store
	entityType string
}

var _ datastore.DocumentContext[struct{}] = (*Typed[struct{}])(nil)

// For returns the facade for T. The entity type is resolved from the
// registry or from T implementing registry.EntityTyper.
func For[T any](s *Store) (*Typed[T], error) {
	name, err := registry.EntityTypeOf[T]()
	if err != nil {
		return nil, err
	}
	return &Typed[T]{store: s, entityType: name}, nil
}

// MustFor is like For but panics when T has no entity type.
func MustFor[T any](s *Store) *Typed[T] {
	t, err := For[T](s)
	if err != nil {
		panic(err)
	}
	return t
}

// EntityType returns the discriminator written to and filtered on.
func (t *Typed[T]) EntityType() string {
	return t.entityType
}

// Get reads one document by id. A document of another entity type under
// the same id is reported as not found.
func (t *Typed[T]) Get(ctx context.Context, container, id string, key partitionkey.Key) (*storagemodels.Envelope[T], error) {
	if err := t.checkPoint(container, id, key); err != nil {
		return nil, err
	}

	resp, err := t.store.client.ReadItem(ctx, container, key, id)
	if err != nil {
		return nil, err
	}
	t.store.metrics.ObserveRequestCharge("Get", container, resp.RequestCharge)

	env, err := t.decode(resp.Body)
	if err != nil {
		return nil, err
	}
	if env.EntityType != t.entityType {
		return nil, errors.NewNotFoundError(t.entityType, id)
	}
	return env, nil
}

// Find returns the first document on the first page matching filter, or
// nil when nothing matched. A filter set through opts is combined with
// filter.
func (t *Typed[T]) Find(ctx context.Context, container string, filter query.Expr, opts ...storagemodels.QueryOption) (*storagemodels.Envelope[T], error) {
	o := storagemodels.ApplyQueryOptions(opts...)
	o.Filter = query.AllOf(o.Filter, filter)

	page, err := t.page(ctx, "Find", container, t.spec(o), o)
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	return page.Items[0], nil
}

// GetList returns the entities on one page. It does not drain the query;
// use GetPagedList to continue past the first page.
func (t *Typed[T]) GetList(ctx context.Context, container string, opts ...storagemodels.QueryOption) ([]T, error) {
	result, err := t.GetPagedList(ctx, container, opts...)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// GetPagedList fetches exactly one page of entities.
func (t *Typed[T]) GetPagedList(ctx context.Context, container string, opts ...storagemodels.QueryOption) (storagemodels.PagedResult[T], error) {
	o := storagemodels.ApplyQueryOptions(opts...)
	page, err := t.page(ctx, "GetPagedList", container, t.spec(o), o)
	if err != nil {
		return storagemodels.PagedResult[T]{}, err
	}
	return unwrap(page), nil
}

// GetPagedDocuments fetches exactly one page of envelopes.
func (t *Typed[T]) GetPagedDocuments(ctx context.Context, container string, opts ...storagemodels.QueryOption) (storagemodels.PagedResult[*storagemodels.Envelope[T]], error) {
	o := storagemodels.ApplyQueryOptions(opts...)
	return t.page(ctx, "GetPagedDocuments", container, t.spec(o), o)
}

// GetPagedListWithSQL fetches one page using a raw predicate in the
// backend's query syntax. The entity type filter is always applied and
// params are bound by name. An empty where applies no extra predicate. A
// structured sort from opts must use property keys only.
func (t *Typed[T]) GetPagedListWithSQL(ctx context.Context, container, where string, params []query.Parameter, opts ...storagemodels.QueryOption) (storagemodels.PagedResult[T], error) {
	o := storagemodels.ApplyQueryOptions(opts...)
	if _, err := o.Sort.ToSQLOrderBy(query.Identity, ""); err != nil {
		return storagemodels.PagedResult[T]{}, err
	}

	spec := t.spec(o)
	spec.Where = strings.TrimSpace(where)
	spec.Parameters = params
	page, err := t.page(ctx, "GetPagedListWithSQL", container, spec, o)
	if err != nil {
		return storagemodels.PagedResult[T]{}, err
	}
	return unwrap(page), nil
}

// Save creates a new document. It fails with a conflict when the id is
// already taken in the partition.
func (t *Typed[T]) Save(ctx context.Context, container string, key partitionkey.Key, entity T) (*storagemodels.Envelope[T], error) {
	env, body, err := t.prepare(container, key, entity)
	if err != nil {
		return nil, err
	}
	resp, err := t.store.client.CreateItem(ctx, container, key, env.ID, body)
	if err != nil {
		return nil, err
	}
	return t.written("Save", container, env, resp)
}

// Upsert creates or replaces a document.
func (t *Typed[T]) Upsert(ctx context.Context, container string, key partitionkey.Key, entity T) (*storagemodels.Envelope[T], error) {
	env, body, err := t.prepare(container, key, entity)
	if err != nil {
		return nil, err
	}
	resp, err := t.store.client.UpsertItem(ctx, container, key, env.ID, body)
	if err != nil {
		return nil, err
	}
	return t.written("Upsert", container, env, resp)
}

// Update replaces an existing document. When env carries an ETag the
// write only succeeds if the stored document still has it.
func (t *Typed[T]) Update(ctx context.Context, container string, key partitionkey.Key, env *storagemodels.Envelope[T]) (*storagemodels.Envelope[T], error) {
	if env == nil {
		return nil, errors.NewValidationError("envelope", "is required")
	}
	if err := t.checkPoint(container, env.ID, key); err != nil {
		return nil, err
	}
	if env.PartitionKey != key.Projection() {
		return nil, errors.NewPartitionKeyMismatchError(container, key.Projection(), env.PartitionKey)
	}
	if env.EntityType != "" && env.EntityType != t.entityType {
		return nil, errors.NewValidationError("entityType", fmt.Sprintf("envelope holds %q, facade writes %q", env.EntityType, t.entityType))
	}

	next := *env
	next.EntityType = t.entityType
	body, err := json.Marshal(&next)
	if err != nil {
		return nil, err
	}
	resp, err := t.store.client.ReplaceItem(ctx, container, key, env.ID, body, storagemodels.WriteOptions{IfMatch: env.ETag})
	if err != nil {
		return nil, err
	}
	return t.written("Update", container, &next, resp)
}

// Delete removes one document.
func (t *Typed[T]) Delete(ctx context.Context, container, id string, key partitionkey.Key) error {
	if err := t.checkPoint(container, id, key); err != nil {
		return err
	}
	resp, err := t.store.client.DeleteItem(ctx, container, key, id)
	if err != nil {
		return err
	}
	t.store.metrics.ObserveRequestCharge("Delete", container, resp.RequestCharge)
	return nil
}

// DeleteAll removes every document of this entity type in one partition.
// Documents of other types sharing the partition are kept. See
// Store.DeleteAll for the failure contract.
func (t *Typed[T]) DeleteAll(ctx context.Context, container string, key partitionkey.Key) error {
	return t.store.deleteAll(ctx, container, key, t.entityType)
}

// AddToBatch wraps entities in envelopes and queues them under key. They
// are written by the next ExecuteBatch.
func (t *Typed[T]) AddToBatch(container string, key partitionkey.Key, entities ...T) error {
	if err := checkKey(key); err != nil {
		return err
	}
	docs := make([]batch.Document, len(entities))
	for i, e := range entities {
		docs[i] = NewEnvelope(t.entityType, e, key.Projection())
	}
	return t.store.buffer.Add(container, key, docs...)
}

// ExecuteBatch flushes the Store's buffer, including documents queued
// through other typed facades of the same Store.
func (t *Typed[T]) ExecuteBatch(ctx context.Context) batch.Results {
	return t.store.ExecuteBatch(ctx)
}

func (t *Typed[T]) spec(o storagemodels.QueryOptions) storagemodels.QuerySpec {
	return storagemodels.QuerySpec{
		EntityType: t.entityType,
		Filter:     o.Filter,
		Sort:       o.Sort,
	}
}

func (t *Typed[T]) page(ctx context.Context, op, container string, spec storagemodels.QuerySpec, o storagemodels.QueryOptions) (storagemodels.PagedResult[*storagemodels.Envelope[T]], error) {
	raw, err := t.store.queryPage(ctx, op, container, spec, o)
	if err != nil {
		return storagemodels.PagedResult[*storagemodels.Envelope[T]]{}, err
	}

	result := storagemodels.PagedResult[*storagemodels.Envelope[T]]{
		Items:             make([]*storagemodels.Envelope[T], 0, len(raw.Items)),
		ContinuationToken: raw.ContinuationToken,
		RequestCharge:     raw.RequestCharge,
	}
	for _, item := range raw.Items {
		env, err := t.decode(item)
		if err != nil {
			return storagemodels.PagedResult[*storagemodels.Envelope[T]]{}, err
		}
		if env.EntityType != t.entityType {
			continue
		}
		result.Items = append(result.Items, env)
	}
	return result, nil
}

func (t *Typed[T]) prepare(container string, key partitionkey.Key, entity T) (*storagemodels.Envelope[T], []byte, error) {
	if err := checkContainer(container); err != nil {
		return nil, nil, err
	}
	if err := checkKey(key); err != nil {
		return nil, nil, err
	}
	env := NewEnvelope(t.entityType, entity, key.Projection())
	body, err := json.Marshal(env)
	if err != nil {
		return nil, nil, err
	}
	return env, body, nil
}

// written returns the stored document when the store echoed it, otherwise
// env with the new ETag.
func (t *Typed[T]) written(op, container string, env *storagemodels.Envelope[T], resp storagemodels.ItemResponse) (*storagemodels.Envelope[T], error) {
	t.store.metrics.ObserveRequestCharge(op, container, resp.RequestCharge)
	if len(resp.Body) > 0 {
		return t.decode(resp.Body)
	}
	env.ETag = resp.ETag
	return env, nil
}

func (t *Typed[T]) decode(raw []byte) (*storagemodels.Envelope[T], error) {
	var env storagemodels.Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", t.entityType, err)
	}
	return &env, nil
}

func (t *Typed[T]) checkPoint(container, id string, key partitionkey.Key) error {
	if err := checkContainer(container); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return errors.NewValidationError("id", "is required")
	}
	return checkKey(key)
}

func unwrap[T any](page storagemodels.PagedResult[*storagemodels.Envelope[T]]) storagemodels.PagedResult[T] {
	items := make([]T, len(page.Items))
	for i, env := range page.Items {
		items[i] = env.Data
	}
	return storagemodels.PagedResult[T]{
		Items:             items,
		ContinuationToken: page.ContinuationToken,
		RequestCharge:     page.RequestCharge,
	}
}
