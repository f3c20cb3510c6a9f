/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

// GSIConfig names the global secondary index that lists documents by
// container and entity type across partitions.
type GSIConfig struct {
	// IndexName is the actual GSI name in DynamoDB (e.g., "GSI1")
	IndexName string
	// PartitionKeyName holds "<container>#<entityType>"
	PartitionKeyName string
	// SortKeyName holds the document id
	SortKeyName string
}

// DefaultEntityTypeIndex is the index layout created by EnsureTable.
var DefaultEntityTypeIndex = GSIConfig{
	IndexName:        "GSI1",
	PartitionKeyName: "GSI1PK",
	SortKeyName:      "GSI1SK",
}

func (g GSIConfig) enabled() bool {
	return g.IndexName != "" && g.PartitionKeyName != "" && g.SortKeyName != ""
}

func entityTypeIndexKey(container, entityType string) string {
	return container + keySeparator + entityType
}
