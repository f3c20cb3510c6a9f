/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cosmos

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"

	"github.com/suparena/cleardata/errors"
)

func TestConvertError(t *testing.T) {
	t.Run("ResponseError", func(t *testing.T) {
		cases := []struct {
			status int
			check  func(error) bool
		}{
			{http.StatusNotFound, errors.IsNotFound},
			{http.StatusConflict, errors.IsAlreadyExists},
			{http.StatusPreconditionFailed, errors.IsConditionFailed},
		}
		for _, c := range cases {
			src := &azcore.ResponseError{ErrorCode: http.StatusText(c.status), StatusCode: c.status}
			err := convertError("ReadItem", fmt.Errorf("wrapped: %w", src))
			assert.True(t, c.check(err), "status %d", c.status)
			assert.Equal(t, c.status, errors.StatusCode(err))

			var re *azcore.ResponseError
			assert.True(t, errors.As(err, &re), "the SDK error stays reachable")
		}
	})

	t.Run("Throttled", func(t *testing.T) {
		err := convertError("QueryPage", &azcore.ResponseError{StatusCode: http.StatusTooManyRequests})
		assert.Equal(t, http.StatusTooManyRequests, errors.StatusCode(err))
		assert.False(t, errors.IsNotFound(err))
	})

	t.Run("Passthrough", func(t *testing.T) {
		assert.Nil(t, convertError("ReadItem", nil))
		assert.Equal(t, context.Canceled, convertError("ReadItem", context.Canceled))
		other := fmt.Errorf("dial tcp: refused")
		assert.Equal(t, other, convertError("ReadItem", other))
	})
}
