/*
Package cleardata is a storage abstraction over document stores (Azure Cosmos
DB, DynamoDB) and relational databases (SQL Server, PostgreSQL, MySQL).

Documents are written inside an envelope carrying their id, entity type and
partition key projection, so several entity types share one container.
Partition keys have one to three levels. Reads are typed, filtered with
composable expressions, and paged with opaque continuation tokens. Writes
can be buffered and flushed as per-partition transactional batches.

Packages:
  - partitionkey: hierarchical keys and container layouts
  - query: filter and sort builders rendered per backend
  - document: the typed document facade
  - datastore/cosmos, datastore/ddb, datastore/mock: document clients
  - datastore/sqlstore: the relational facade
  - repository: CRUD repositories over either facade
  - errors: semantic errors carrying store status codes

Basic usage:

	client, _ := cosmos.NewClientFromConnectionString(conn, "shop")
	store := document.NewStore(client)
	orders := document.MustFor[Order](store)

	key, _ := partitionkey.WithLevel1("tenant-1").AddLevel2("user-9").Build()
	saved, err := orders.Save(ctx, "orders", key, order)

	page, err := orders.GetPagedList(ctx, "orders",
		storagemodels.WithPartitionKey(key),
		storagemodels.WithFilter(query.Eq(query.Data("status"), "open")),
		storagemodels.WithPageSize(50))

A Registry holds named repositories per entity type for applications that
wire several containers at startup.
*/
package cleardata
