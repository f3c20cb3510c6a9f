/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/query"
)

// DefaultPageSize is used when no page size is given.
const DefaultPageSize = 100

// QueryOptions configures a paged query
type QueryOptions struct {
	PageSize          int                // Items per page (default: 100)
	ContinuationToken string             // Token from the previous page
	PartitionKey      partitionkey.Key   // Zero key queries across partitions
	Filter            query.Expr         // Nil matches everything
	Sort              *query.SortBuilder // Nil keeps the store's order
}

// QueryOption is a functional option for configuring queries
type QueryOption func(*QueryOptions)

// DefaultQueryOptions returns default query options
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{PageSize: DefaultPageSize}
}

// ApplyQueryOptions applies opts over the defaults
func ApplyQueryOptions(opts ...QueryOption) QueryOptions {
	o := DefaultQueryOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPageSize sets the maximum number of items per page
func WithPageSize(size int) QueryOption {
	return func(opts *QueryOptions) {
		opts.PageSize = size
	}
}

// WithContinuationToken resumes from a previous page. The token must come
// from a query with the same partition key, filter and sort.
func WithContinuationToken(token string) QueryOption {
	return func(opts *QueryOptions) {
		opts.ContinuationToken = token
	}
}

// WithPartitionKey scopes the query to one logical partition
func WithPartitionKey(key partitionkey.Key) QueryOption {
	return func(opts *QueryOptions) {
		opts.PartitionKey = key
	}
}

// WithFilter sets the predicate
func WithFilter(expr query.Expr) QueryOption {
	return func(opts *QueryOptions) {
		opts.Filter = expr
	}
}

// WithFilterBuilder sets the predicate built by f
func WithFilterBuilder(f *query.FilterBuilder) QueryOption {
	return func(opts *QueryOptions) {
		opts.Filter = f.Build()
	}
}

// WithSort sets the ordering
func WithSort(s *query.SortBuilder) QueryOption {
	return func(opts *QueryOptions) {
		opts.Sort = s
	}
}
