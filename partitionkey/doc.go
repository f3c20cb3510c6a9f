/*
Package partitionkey models hierarchical partition keys of 1 to 3 typed
levels and the containers that use them.

Keys are immutable values:

	key, err := partitionkey.New("tenant-1", "user-9")
	key, err := partitionkey.WithLevel1("tenant-1").AddLevel2("user-9").Build()
	key, err := partitionkey.FromDelimited("tenant-1|user-9", "|")
	single := partitionkey.From("tenant-1")

A key renders three ways:
  - ToNative returns the azcosmos.PartitionKey used for SDK calls
  - NativeString is a type-preserving JSON array used to group batch buckets
  - Projection is the string stored in the envelope's partitionKey field

Containers declare their partition key paths; "/id" may only be the top
level and at most three levels are allowed:

	info, err := partitionkey.NewContainer("orders").
	    WithPartitionKeyPath("/data/tenantId").
	    AddPartitionKeyPath("/data/customerId").
	    Build()
*/
package partitionkey
