/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/storagemodels"
)

const maxReportedFailures = 10

// DeleteAll removes every document in one logical partition of container,
// whatever its entity type.
//
// Deletes run in windows of concurrent calls, each window awaited before
// the next starts. A document that is already gone counts as deleted.
// Failures do not stop the purge. They are collected into a
// *errors.DeleteAllError and nothing is rolled back. Once started the
// purge is not cancelled by ctx.
func (s *Store) DeleteAll(ctx context.Context, container string, key partitionkey.Key) error {
	return s.deleteAll(ctx, container, key, "")
}

func (s *Store) deleteAll(ctx context.Context, container string, key partitionkey.Key, entityType string) error {
	if err := checkContainer(container); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}

	runCtx := context.WithoutCancel(ctx)
	ids, err := s.partitionIDs(runCtx, container, key, entityType)
	if err != nil {
		return err
	}

	failures := make([]error, len(ids))
	for start := 0; start < len(ids); start += s.deleteWindow {
		end := min(start+s.deleteWindow, len(ids))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.client.DeleteItem(runCtx, container, key, ids[i])
				if err != nil && !errors.IsNotFound(err) {
					failures[i] = err
				}
			}(i)
		}
		wg.Wait()
	}

	report := &errors.DeleteAllError{
		Container:    container,
		PartitionKey: key.String(),
		Total:        len(ids),
	}
	for i, err := range failures {
		if err == nil {
			continue
		}
		report.FailureCount++
		if report.First == nil {
			report.First = err
		}
		if len(report.FailedIDs) < maxReportedFailures {
			report.FailedIDs = append(report.FailedIDs, ids[i])
		}
		s.metrics.DeleteFailure(container)
	}

	if report.FailureCount > 0 {
		s.log.Error("delete all incomplete",
			"container", container,
			"partitionKey", key.String(),
			"total", report.Total,
			"failed", report.FailureCount,
			"error", report.First)
		return report
	}
	s.log.Debug("partition purged", "container", container, "partitionKey", key.String(), "deleted", len(ids))
	return nil
}

// partitionIDs drains the partition's ids before anything is deleted, so
// deletes cannot shift the pages being read.
func (s *Store) partitionIDs(ctx context.Context, container string, key partitionkey.Key, entityType string) ([]string, error) {
	spec := storagemodels.QuerySpec{EntityType: entityType}
	o := storagemodels.QueryOptions{PageSize: storagemodels.DefaultPageSize, PartitionKey: key}

	var ids []string
	for {
		page, err := s.queryPage(ctx, "DeleteAll", container, spec, o)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var doc struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(raw, &doc); err != nil {
				return nil, err
			}
			ids = append(ids, doc.ID)
		}
		if page.ContinuationToken == "" {
			return ids, nil
		}
		o.ContinuationToken = page.ContinuationToken
	}
}
