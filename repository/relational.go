/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository

import (
	"context"

	"github.com/suparena/cleardata/datastore"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/query"
	"github.com/suparena/cleardata/storagemodels"
)

// RelationalRepository is CRUD over one table.
type RelationalRepository[T any, ID comparable] struct {
	rows datastore.RelationalContext[T, ID]
}

func NewRelationalRepository[T any, ID comparable](rows datastore.RelationalContext[T, ID]) (*RelationalRepository[T, ID], error) {
	if rows == nil {
		return nil, errors.NewConfigurationError("rows", "a relational context is required")
	}
	return &RelationalRepository[T, ID]{rows: rows}, nil
}

func (r *RelationalRepository[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	return r.rows.Get(ctx, id)
}

// FindOne returns the first match, or nil.
func (r *RelationalRepository[T, ID]) FindOne(ctx context.Context, filter query.Expr) (*T, error) {
	return r.rows.Find(ctx, filter)
}

func (r *RelationalRepository[T, ID]) FindAll(ctx context.Context, filter query.Expr, sort *query.SortBuilder) ([]T, error) {
	return r.rows.List(ctx, filter, sort)
}

func (r *RelationalRepository[T, ID]) Page(ctx context.Context, filter query.Expr, sort *query.SortBuilder, pageSize int, token string) (storagemodels.PagedResult[T], error) {
	return r.rows.GetPaged(ctx, filter, sort, pageSize, token)
}

func (r *RelationalRepository[T, ID]) Create(ctx context.Context, entity *T) error {
	return r.rows.Insert(ctx, entity)
}

func (r *RelationalRepository[T, ID]) Update(ctx context.Context, entity *T) error {
	return r.rows.Update(ctx, entity)
}

func (r *RelationalRepository[T, ID]) Delete(ctx context.Context, id ID) error {
	return r.rows.Delete(ctx, id)
}

// CreateAll inserts entities in one transaction.
func (r *RelationalRepository[T, ID]) CreateAll(ctx context.Context, entities ...*T) (int64, error) {
	r.rows.AddToBatch(entities...)
	return r.rows.SaveChanges(ctx)
}

// DeleteAll deletes rows by id in one transaction.
func (r *RelationalRepository[T, ID]) DeleteAll(ctx context.Context, ids ...ID) (int64, error) {
	r.rows.RemoveInBatch(ids...)
	return r.rows.SaveChanges(ctx)
}
