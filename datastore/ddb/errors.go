/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"

	"github.com/suparena/cleardata/errors"
)

// convertError wraps a service error in *errors.StoreError. Known error
// codes map to the status a document store reports for them; other
// service errors keep the HTTP status of the response.
func convertError(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		if status := codeStatus(apiErr.ErrorCode()); status != 0 {
			return errors.NewStoreError(op, status, err)
		}
	}
	var re *awshttp.ResponseError
	if stderrors.As(err, &re) {
		return errors.NewStoreError(op, re.HTTPStatusCode(), err)
	}
	return err
}

func codeStatus(code string) int {
	switch code {
	case "ThrottlingException", "ProvisionedThroughputExceededException", "RequestLimitExceeded":
		return http.StatusTooManyRequests
	case "ConditionalCheckFailedException":
		return http.StatusPreconditionFailed
	case "TransactionConflictException", "ResourceInUseException":
		return http.StatusConflict
	case "ResourceNotFoundException":
		return http.StatusNotFound
	case "ValidationException", "SerializationException":
		return http.StatusBadRequest
	case "ItemCollectionSizeLimitExceededException":
		return http.StatusRequestEntityTooLarge
	}
	return 0
}
