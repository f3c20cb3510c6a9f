/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// PagedResult is a single page of results.
type PagedResult[T any] struct {
	// Items holds this page only.
	Items []T `json:"items"`
	// ContinuationToken is opaque; empty means there are no further pages.
	ContinuationToken string `json:"continuationToken,omitempty"`
	// RequestCharge is the store reported cost of this page.
	RequestCharge float64 `json:"requestCharge"`
}

// HasMoreResults is derived strictly from the continuation token.
func (p PagedResult[T]) HasMoreResults() bool {
	return p.ContinuationToken != ""
}

// Count is the number of items on this page.
func (p PagedResult[T]) Count() int {
	return len(p.Items)
}
