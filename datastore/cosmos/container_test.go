/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cosmos

import (
	"context"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/partitionkey"
)

func TestContainerProperties(t *testing.T) {
	t.Run("Single", func(t *testing.T) {
		props := ContainerProperties(partitionkey.Container("products"))
		assert.Equal(t, "products", props.ID)
		assert.Equal(t, azcosmos.PartitionKeyKindHash, props.PartitionKeyDefinition.Kind)
		assert.Equal(t, []string{"/partitionKey"}, props.PartitionKeyDefinition.Paths)
		assert.Equal(t, 2, props.PartitionKeyDefinition.Version)
	})

	t.Run("Hierarchical", func(t *testing.T) {
		info, err := partitionkey.NewContainer("orders").
			WithPartitionKeyPath("/tenantId").
			AddPartitionKeyPath("/userId").
			Build()
		require.NoError(t, err)

		props := ContainerProperties(info)
		assert.Equal(t, azcosmos.PartitionKeyKindMultiHash, props.PartitionKeyDefinition.Kind)
		assert.Equal(t, []string{"/tenantId", "/userId"}, props.PartitionKeyDefinition.Paths)
	})
}

func TestEnsureContainerValidation(t *testing.T) {
	c := newClient("shop")
	_, err := c.EnsureContainer(context.Background(), partitionkey.ContainerInfo{})
	assert.True(t, errors.IsConfiguration(err))

	_, err = c.EnsureContainer(context.Background(), partitionkey.Container("products"))
	assert.True(t, errors.IsConfiguration(err), "no account connection")
}
