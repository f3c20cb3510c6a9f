/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package cosmos implements datastore.DocumentClient on Azure Cosmos DB.

Containers partitioned on the default /partitionKey path use the
envelope's partitionKey projection as the physical key. Containers with
hierarchical keys are registered with WithContainers; their key segments
are written into each document at the registered paths and sent to the
service as a hierarchical partition key:

	orders, _ := partitionkey.NewContainer("orders").
	    WithPartitionKeyPath("/tenantId").
	    AddPartitionKeyPath("/userId").
	    Build()

	client, err := cosmos.NewClientFromConnectionString(connStr, "shop",
	    cosmos.WithContainers(orders),
	    cosmos.WithLogger(log))

Queries are rendered to Cosmos DB SQL:

	SELECT * FROM c WHERE c.entityType = @entityType AND (c.data.price > @__p1) ORDER BY c.data.price ASC

Service failures are returned as *errors.StoreError carrying the HTTP
status, so errors.IsNotFound and friends work on them.
*/
package cosmos
