/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/suparena/cleardata/query"
)

// QuerySpec describes one page query against a document container.
// Backends always scope it to EntityType before applying Filter or Where.
type QuerySpec struct {
	// EntityType is the discriminator every returned document must carry.
	// Empty means documents of any type (heterogeneous reads).
	EntityType string
	// Filter is the structured predicate. Nil matches everything.
	Filter query.Expr
	// Sort orders the results. Nil or empty keeps the store's order.
	Sort *query.SortBuilder
	// Where is a raw predicate in the backend's native syntax, combined
	// with AND. Used by the SQL-text paging path.
	Where string
	// Parameters are bound by name into Where.
	Parameters []query.Parameter
}

// Shape fingerprints everything that determines the result sequence, so
// a continuation token can be tied to the query that produced it.
func (q QuerySpec) Shape() string {
	var sb strings.Builder
	sb.WriteString(q.EntityType)
	sb.WriteByte(0)
	if q.Filter != nil {
		sb.WriteString(q.Filter.String())
	}
	sb.WriteByte(0)
	sb.WriteString(q.Sort.String())
	sb.WriteByte(0)
	sb.WriteString(q.Where)
	for _, p := range q.Parameters {
		sb.WriteByte(0)
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(fmt.Sprint(p.Value))
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:8])
}

// Page is one page of raw JSON documents returned by a document client.
type Page struct {
	Items             [][]byte
	ContinuationToken string
	RequestCharge     float64
}

// ItemResponse is the store's answer to a point operation.
type ItemResponse struct {
	// Body is the stored document, when the store returned it.
	Body          []byte
	ETag          string
	StatusCode    int
	RequestCharge float64
}

// WriteOptions controls a single write.
type WriteOptions struct {
	// IfMatch makes the write conditional on the stored ETag.
	IfMatch string
}

// BatchItem is one upsert inside a transactional batch.
type BatchItem struct {
	ID   string
	Body []byte
}

// BatchResponse is the outcome of one transactional batch.
type BatchResponse struct {
	Success       bool
	StatusCode    int
	Message       string
	RequestCharge float64
}
