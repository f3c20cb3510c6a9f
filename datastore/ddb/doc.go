/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package ddb provides a DynamoDB implementation of datastore.DocumentClient.

All containers share one table. Documents are keyed by

	PK = "<container>#<partition key>"   // e.g. orders#["tenant-1","user-9"]
	SK = "<document id>"

and the envelope's JSON fields become top level attributes, so filters on
"data.price" address the nested map directly.

Typed queries without a partition key use a global secondary index keyed
by "<container>#<entityType>" (DefaultEntityTypeIndex). Pass a zero
GSIConfig to WithEntityTypeIndex to fall back to scanning the container's
key prefix instead:

	client, err := ddb.New(api, "cleardata",
	    ddb.WithEntityTypeIndex(ddb.GSIConfig{}),
	    ddb.WithLogger(log),
	)

Ordering is limited to the document id, which is the table's sort key.
Raw predicates passed through GetPagedListWithSQL run as PartiQL with
positional "?" parameters.

Transactional batches use TransactWriteItems, which accepts the same 100
operations as a facade chunk.
*/
package ddb
