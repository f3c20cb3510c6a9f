/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/cleardata/batch"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/query"
	"github.com/suparena/cleardata/storagemodels"
)

// DocumentClient is the document store a facade drives. Implementations
// wrap store failures in errors.StoreError carrying the store's status
// code, and must be safe for concurrent use.
type DocumentClient interface {
	ReadItem(ctx context.Context, container string, key partitionkey.Key, id string) (storagemodels.ItemResponse, error)

	CreateItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte) (storagemodels.ItemResponse, error)

	UpsertItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte) (storagemodels.ItemResponse, error)

	ReplaceItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte, opts storagemodels.WriteOptions) (storagemodels.ItemResponse, error)

	DeleteItem(ctx context.Context, container string, key partitionkey.Key, id string) (storagemodels.ItemResponse, error)

	// QueryPage fetches exactly one page. A nil key queries across
	// partitions. The token is passed to the store unchanged.
	QueryPage(ctx context.Context, container string, key *partitionkey.Key, spec storagemodels.QuerySpec, pageSize int, token string) (storagemodels.Page, error)

	// ExecuteBatch upserts items in one atomic batch scoped to key. At most
	// batch.MaxOperations items are accepted.
	ExecuteBatch(ctx context.Context, container string, key partitionkey.Key, items []storagemodels.BatchItem) (storagemodels.BatchResponse, error)
}

// DocumentContext is the typed document facade for entity type T.
type DocumentContext[T any] interface {
	Get(ctx context.Context, container, id string, key partitionkey.Key) (*storagemodels.Envelope[T], error)

	// Find returns the first match on one page, or nil when none matched.
	Find(ctx context.Context, container string, filter query.Expr, opts ...storagemodels.QueryOption) (*storagemodels.Envelope[T], error)

	GetList(ctx context.Context, container string, opts ...storagemodels.QueryOption) ([]T, error)

	GetPagedList(ctx context.Context, container string, opts ...storagemodels.QueryOption) (storagemodels.PagedResult[T], error)

	GetPagedDocuments(ctx context.Context, container string, opts ...storagemodels.QueryOption) (storagemodels.PagedResult[*storagemodels.Envelope[T]], error)

	GetPagedListWithSQL(ctx context.Context, container, where string, params []query.Parameter, opts ...storagemodels.QueryOption) (storagemodels.PagedResult[T], error)

	Save(ctx context.Context, container string, key partitionkey.Key, entity T) (*storagemodels.Envelope[T], error)

	Upsert(ctx context.Context, container string, key partitionkey.Key, entity T) (*storagemodels.Envelope[T], error)

	Update(ctx context.Context, container string, key partitionkey.Key, env *storagemodels.Envelope[T]) (*storagemodels.Envelope[T], error)

	Delete(ctx context.Context, container, id string, key partitionkey.Key) error

	DeleteAll(ctx context.Context, container string, key partitionkey.Key) error

	AddToBatch(container string, key partitionkey.Key, entities ...T) error

	ExecuteBatch(ctx context.Context) batch.Results
}

// RelationalContext is the typed relational facade for entity T with
// primary key ID.
type RelationalContext[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (*T, error)

	// Find returns the first match, or nil when none matched.
	Find(ctx context.Context, filter query.Expr) (*T, error)

	List(ctx context.Context, filter query.Expr, sort *query.SortBuilder) ([]T, error)

	GetPaged(ctx context.Context, filter query.Expr, sort *query.SortBuilder, pageSize int, token string) (storagemodels.PagedResult[T], error)

	Insert(ctx context.Context, entity *T) error

	Update(ctx context.Context, entity *T) error

	Delete(ctx context.Context, id ID) error

	DeleteWhere(ctx context.Context, filter query.Expr) (int64, error)

	AddToBatch(entities ...*T)

	UpdateInBatch(entities ...*T)

	RemoveInBatch(ids ...ID)

	// SaveChanges flushes the queued changes in one transaction.
	SaveChanges(ctx context.Context) (int64, error)

	ExecSQL(ctx context.Context, statement string, args ...any) (int64, error)
}
