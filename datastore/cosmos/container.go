/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cosmos

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/partitionkey"
)

// ContainerProperties maps a container definition onto the SDK type.
// Hierarchical definitions use the MultiHash kind.
func ContainerProperties(info partitionkey.ContainerInfo) azcosmos.ContainerProperties {
	kind := azcosmos.PartitionKeyKindHash
	if info.Hierarchical() {
		kind = azcosmos.PartitionKeyKindMultiHash
	}
	return azcosmos.ContainerProperties{
		ID: info.Name,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Kind:    kind,
			Paths:   info.Paths(),
			Version: 2,
		},
	}
}

// EnsureContainer creates the container when it does not exist and
// registers its layout with the client. An existing container is left
// as is.
func (c *Client) EnsureContainer(ctx context.Context, info partitionkey.ContainerInfo) (created bool, err error) {
	if err := info.Validate(); err != nil {
		return false, err
	}
	if c.client == nil {
		return false, errors.NewConfigurationError("client", "not connected to an account")
	}

	db, err := c.client.NewDatabase(c.database)
	if err != nil {
		return false, errors.NewConfigurationError("database", err.Error())
	}
	_, err = db.CreateContainer(ctx, ContainerProperties(info), nil)
	if err != nil && !errors.IsAlreadyExists(convertError("CreateContainer", err)) {
		return false, convertError("CreateContainer", err)
	}

	c.mu.Lock()
	c.infos[info.Name] = info
	delete(c.containers, info.Name)
	c.mu.Unlock()

	if err == nil {
		c.log.Info("container created", "database", c.database, "container", info.Name, "paths", info.Paths())
	}
	return err == nil, nil
}
