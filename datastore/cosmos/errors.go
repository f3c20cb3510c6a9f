/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cosmos

import (
	"context"
	stderrors "errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/suparena/cleardata/errors"
)

// convertError wraps a service error in *errors.StoreError with its HTTP
// status. Context errors and transport failures are returned unchanged.
func convertError(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var re *azcore.ResponseError
	if stderrors.As(err, &re) {
		return errors.NewStoreError(op, re.StatusCode, err)
	}
	return err
}
