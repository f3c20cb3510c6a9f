/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableDefinition describes the table layout the client expects, with the
// entity type index when it is enabled.
func (c *Client) TableDefinition() *sdk.CreateTableInput {
	input := &sdk.CreateTableInput{
		TableName:   aws.String(c.tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(PartitionKeyName), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(SortKeyName), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(PartitionKeyName), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(SortKeyName), KeyType: types.KeyTypeRange},
		},
	}
	if !c.index.enabled() {
		return input
	}
	input.AttributeDefinitions = append(input.AttributeDefinitions,
		types.AttributeDefinition{AttributeName: aws.String(c.index.PartitionKeyName), AttributeType: types.ScalarAttributeTypeS},
		types.AttributeDefinition{AttributeName: aws.String(c.index.SortKeyName), AttributeType: types.ScalarAttributeTypeS},
	)
	input.GlobalSecondaryIndexes = []types.GlobalSecondaryIndex{{
		IndexName: aws.String(c.index.IndexName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(c.index.PartitionKeyName), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(c.index.SortKeyName), KeyType: types.KeyTypeRange},
		},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}}
	return input
}

// EnsureTable creates the table when it does not exist and waits up to
// maxWait for it to become active. An existing table is left as is.
func (c *Client) EnsureTable(ctx context.Context, maxWait time.Duration) (created bool, err error) {
	_, err = c.api.CreateTable(ctx, c.TableDefinition())
	if err != nil {
		var inUse *types.ResourceInUseException
		if stderrors.As(err, &inUse) {
			return false, nil
		}
		return false, convertError("CreateTable", err)
	}

	waiter := sdk.NewTableExistsWaiter(c.api)
	if err := waiter.Wait(ctx, &sdk.DescribeTableInput{TableName: aws.String(c.tableName)}, maxWait); err != nil {
		return true, convertError("CreateTable", err)
	}
	c.log.Info("table created", "table", c.tableName, "index", c.index.IndexName)
	return true, nil
}
