/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"context"
	"net/http"

	"github.com/suparena/cleardata/errors"
)

// Outcome is what a store reports for one executed chunk.
type Outcome struct {
	Success       bool
	StatusCode    int
	Message       string
	RequestCharge float64
}

// ChunkFunc runs one chunk as a single atomic batch against the store.
type ChunkFunc func(ctx context.Context, p Pending, docs []Document) (Outcome, error)

// Execute drains buf. Each bucket is split into chunks of at most
// MaxOperations documents which run strictly in order. A chunk error is
// recorded as a failed result and the remaining chunks still run. The
// buffer is cleared when Execute returns, whatever the outcome.
//
// Chunks run on a context detached from ctx's cancellation: once started,
// a batch runs to completion.
func Execute(ctx context.Context, buf *Buffer, fn ChunkFunc) Results {
	defer buf.Clear()

	runCtx := context.WithoutCancel(ctx)
	var results Results
	for _, p := range buf.Pending() {
		total := len(p.Documents)
		for _, r := range Chunk(total, MaxOperations) {
			res := Result{
				Container:    p.Container,
				PartitionKey: p.PartitionKey.String(),
				Index:        r.Index,
				Count:        r.Count,
				FirstItem:    r.Start + 1,
				LastItem:     r.End,
				TotalItems:   total,
			}

			out, err := fn(runCtx, p, p.Documents[r.Start:r.End])
			if err != nil {
				res.Success = false
				res.StatusCode = errors.StatusCode(err)
				if res.StatusCode == 0 {
					res.StatusCode = http.StatusInternalServerError
				}
				res.Message = err.Error()
			} else {
				res.Success = out.Success
				res.StatusCode = out.StatusCode
				res.Message = out.Message
				res.RequestCharge = out.RequestCharge
			}
			results = append(results, res)
		}
	}
	return results
}
