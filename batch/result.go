/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"fmt"
)

// MaxOperations is the store's hard limit of operations per atomic batch.
const MaxOperations = 100

// Range is one chunk of a bucket: documents [Start, End) of a list,
// numbered Index of Count.
type Range struct {
	Index int
	Count int
	Start int
	End   int
}

// Chunk splits n items into consecutive ranges of at most size items.
// A size outside 1..MaxOperations is treated as MaxOperations.
func Chunk(n, size int) []Range {
	if n <= 0 {
		return nil
	}
	if size <= 0 || size > MaxOperations {
		size = MaxOperations
	}
	count := (n + size - 1) / size
	out := make([]Range, 0, count)
	for i := 0; i < count; i++ {
		start := i * size
		end := min(start+size, n)
		out = append(out, Range{Index: i + 1, Count: count, Start: start, End: end})
	}
	return out
}

// Result is the outcome of one chunk.
type Result struct {
	Container    string
	PartitionKey string
	// Index is the 1-based chunk number and Count the number of chunks in
	// the bucket.
	Index int
	Count int
	// FirstItem and LastItem are 1-based positions within the bucket.
	FirstItem  int
	LastItem   int
	TotalItems int

	Success       bool
	StatusCode    int
	Message       string
	RequestCharge float64
}

// Range renders the covered item positions, e.g. "101-200".
func (r Result) Range() string {
	return fmt.Sprintf("%d-%d", r.FirstItem, r.LastItem)
}

func (r Result) String() string {
	return fmt.Sprintf("items %s of %d, batch %d/%d", r.Range(), r.TotalItems, r.Index, r.Count)
}

// Results is the outcome of one batch execution.
type Results []Result

// Failed returns the failed chunks.
func (rs Results) Failed() Results {
	var out Results
	for _, r := range rs {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}

// AllSucceeded reports whether every chunk succeeded.
func (rs Results) AllSucceeded() bool {
	return len(rs.Failed()) == 0
}

// RequestCharge sums the charge of every chunk.
func (rs Results) RequestCharge() float64 {
	total := 0.0
	for _, r := range rs {
		total += r.RequestCharge
	}
	return total
}
