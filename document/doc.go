/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package document is the typed facade over a document store.
//
// A Store wraps a datastore.DocumentClient and owns one batch buffer.
// Typed views are obtained with For:
//
//	document.Register[Product]("Product")
//	store := document.NewStore(client, document.WithLogger(log))
//	products, err := document.For[Product](store)
//
//	key := partitionkey.MustNew("tenant-1", "catalog")
//	env, err := products.Save(ctx, "catalog", key, p)
//
// Every document is stored inside an envelope carrying an explicit entity
// type discriminator, so several entity types can share one container.
// Typed reads always filter on that discriminator first.
//
// Paged reads fetch exactly one page. Draining a query is a caller loop
// over the continuation token, see the package examples.
//
// The batch buffer is not synchronized. A Store used for batching belongs
// to one goroutine at a time.
package document
