/*
Package errors provides semantic error types for the cleardata library.

The taxonomy follows the failure classes of the data-access layer:

	var (
	    ErrConfiguration        // container, table or partition key setup is invalid
	    ErrState                // fluent builder used out of order
	    ErrInvalidInput         // argument rejected before any store call
	    ErrPartitionKeyMismatch // batch document does not match its bucket
	    ErrNotFound             // store reported 404
	    ErrAlreadyExists        // store reported 409
	    ErrConditionFailed      // ETag or version precondition failed
	    ErrPartialFailure       // DeleteAll left some documents behind
	    ErrNoEntityType         // no discriminator registered for a Go type
	)

Configuration, state and argument errors are raised synchronously and never
retried. Store failures are wrapped in a StoreError that keeps the backend
error reachable:

	doc, err := products.Get(ctx, "products", id, key)
	if err != nil {
	    if errors.IsNotFound(err) {
	        return nil, nil
	    }
	    var re *azcore.ResponseError
	    if stderrors.As(err, &re) {
	        log.Printf("cosmos error code %s", re.ErrorCode)
	    }
	    return nil, err
	}

Batch execution never returns store errors; it converts them into per-chunk
results. DeleteAll returns a DeleteAllError which lists the first failed ids.
*/
package errors
