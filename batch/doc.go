/*
Package batch stages document writes and executes them in atomic,
partition scoped chunks.

A Buffer groups pending documents by container and partition key:

	buf := batch.NewBuffer()
	err := buf.Add("orders", key, env1, env2)

Execute drains the buffer through a ChunkFunc supplied by a store. Every
bucket is split into chunks of at most MaxOperations (100) documents, each
producing one Result:

	results := batch.Execute(ctx, buf, store.runChunk)
	for _, r := range results.Failed() {
	    log.Printf("%s failed: %s", r, r.Message) // items 101-200 of 250, batch 2/3
	}

Chunk failures never abort sibling chunks and the buffer is always cleared,
so callers must inspect the returned Results.
*/
package batch
