/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/suparena/cleardata/batch"
	"github.com/suparena/cleardata/datastore"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/logger"
	"github.com/suparena/cleardata/metrics"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/storagemodels"
)

// DefaultDeleteWindow is the number of deletes DeleteAll runs concurrently.
const DefaultDeleteWindow = 10

// Store is the document facade over one DocumentClient. The client is
// shared, the batch buffer is owned by the Store.
type Store struct {
	client       datastore.DocumentClient
	log          logger.Logger
	metrics      metrics.Recorder
	deleteWindow int
	buffer       *batch.Buffer
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithDeleteWindow overrides how many deletes DeleteAll awaits together.
func WithDeleteWindow(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.deleteWindow = n
		}
	}
}

// NewStore creates a Store over client
func NewStore(client datastore.DocumentClient, opts ...Option) *Store {
	s := &Store{
		client:       client,
		log:          logger.Nop(),
		metrics:      metrics.Nop(),
		deleteWindow: DefaultDeleteWindow,
		buffer:       batch.NewBuffer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying document client.
func (s *Store) Client() datastore.DocumentClient {
	return s.client
}

// PendingBatch lists the queued buckets in insertion order.
func (s *Store) PendingBatch() []batch.Pending {
	return s.buffer.Pending()
}

// ExecuteBatch runs every queued bucket as transactional batches of at
// most batch.MaxOperations upserts. Failures are reported per chunk in
// the results, never returned as an error. The buffer is always cleared.
func (s *Store) ExecuteBatch(ctx context.Context) batch.Results {
	results := batch.Execute(ctx, s.buffer, s.executeChunk)

	for _, r := range results {
		s.metrics.BatchChunk(r.Container, r.Success)
		s.metrics.ObserveRequestCharge("ExecuteBatch", r.Container, r.RequestCharge)
		if !r.Success {
			s.log.Warn("batch chunk failed",
				"container", r.Container,
				"partitionKey", r.PartitionKey,
				"chunk", r.String(),
				"status", r.StatusCode,
				"message", r.Message)
		}
	}
	if len(results) > 0 {
		s.log.Info("batch executed",
			"chunks", len(results),
			"failed", len(results.Failed()),
			"requestCharge", results.RequestCharge())
	}
	return results
}

func (s *Store) executeChunk(ctx context.Context, p batch.Pending, docs []batch.Document) (batch.Outcome, error) {
	items := make([]storagemodels.BatchItem, len(docs))
	for i, d := range docs {
		body, err := json.Marshal(d)
		if err != nil {
			return batch.Outcome{}, errors.NewValidationError("documents", "cannot encode "+d.GetID()+": "+err.Error())
		}
		items[i] = storagemodels.BatchItem{ID: d.GetID(), Body: body}
	}

	resp, err := s.client.ExecuteBatch(ctx, p.Container, p.PartitionKey, items)
	if err != nil {
		return batch.Outcome{}, err
	}
	return batch.Outcome{
		Success:       resp.Success,
		StatusCode:    resp.StatusCode,
		Message:       resp.Message,
		RequestCharge: resp.RequestCharge,
	}, nil
}

// GetPagedMixed reads one page of documents of any entity type from a
// shared container. Each item is decoded by DecodeAny.
func (s *Store) GetPagedMixed(ctx context.Context, container string, opts ...storagemodels.QueryOption) (storagemodels.PagedResult[any], error) {
	o := storagemodels.ApplyQueryOptions(opts...)
	page, err := s.queryPage(ctx, "GetPagedMixed", container, storagemodels.QuerySpec{
		Filter: o.Filter,
		Sort:   o.Sort,
	}, o)
	if err != nil {
		return storagemodels.PagedResult[any]{}, err
	}

	result := storagemodels.PagedResult[any]{
		Items:             make([]any, 0, len(page.Items)),
		ContinuationToken: page.ContinuationToken,
		RequestCharge:     page.RequestCharge,
	}
	for _, raw := range page.Items {
		v, err := DecodeAny(raw)
		if err != nil {
			return storagemodels.PagedResult[any]{}, err
		}
		result.Items = append(result.Items, v)
	}
	return result, nil
}

func (s *Store) queryPage(ctx context.Context, op, container string, spec storagemodels.QuerySpec, o storagemodels.QueryOptions) (storagemodels.Page, error) {
	if err := checkContainer(container); err != nil {
		return storagemodels.Page{}, err
	}
	if o.PageSize <= 0 {
		return storagemodels.Page{}, errors.NewValidationError("pageSize", "must be positive")
	}
	var key *partitionkey.Key
	if !o.PartitionKey.IsZero() {
		key = &o.PartitionKey
	}

	page, err := s.client.QueryPage(ctx, container, key, spec, o.PageSize, o.ContinuationToken)
	if err != nil {
		return storagemodels.Page{}, err
	}
	s.metrics.ObserveRequestCharge(op, container, page.RequestCharge)
	return page, nil
}

func checkContainer(container string) error {
	if strings.TrimSpace(container) == "" {
		return errors.NewConfigurationError("container", "name is required")
	}
	return nil
}

func checkKey(key partitionkey.Key) error {
	if key.IsZero() {
		return errors.NewValidationError("partitionKey", "a partition key is required")
	}
	return nil
}
