/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/query"
	"github.com/suparena/cleardata/storagemodels"
)

// Dialect renders filter expressions as DynamoDB condition expressions.
// Every path segment is aliased through ExpressionAttributeNames.
type Dialect struct{}

func (Dialect) Field(b *query.Binder, path string) string {
	segs := strings.Split(path, ".")
	for i, s := range segs {
		segs[i] = b.Alias("#n", s)
	}
	return strings.Join(segs, ".")
}

func (Dialect) Placeholder(n int) string { return ":v" + strconv.Itoa(n) }

func (Dialect) Operator(op query.Op) string {
	if op == query.OpNe {
		return "<>"
	}
	return string(op)
}

func (Dialect) Function(b *query.Binder, fn query.Func, field, arg string) string {
	switch fn {
	case query.FuncExists:
		return "attribute_exists(" + field + ")"
	case query.FuncStartsWith:
		return "begins_with(" + field + ", " + b.Bind(arg) + ")"
	default:
		return "contains(" + field + ", " + b.Bind(arg) + ")"
	}
}

// Const has no literal form, so it tests the partition key attribute that
// every item carries.
func (Dialect) Const(b *query.Binder, v bool) string {
	pk := b.Alias("#n", PartitionKeyName)
	if v {
		return "attribute_exists(" + pk + ")"
	}
	return "attribute_not_exists(" + pk + ")"
}

// partiQLDialect renders filters inside a PartiQL WHERE clause with
// positional parameters.
type partiQLDialect struct{}

func (partiQLDialect) Field(_ *query.Binder, path string) string {
	segs := strings.Split(path, ".")
	for i, s := range segs {
		segs[i] = strconv.Quote(s)
	}
	return strings.Join(segs, ".")
}

func (partiQLDialect) Placeholder(int) string { return "?" }

func (partiQLDialect) Operator(op query.Op) string { return Dialect{}.Operator(op) }

func (partiQLDialect) Function(b *query.Binder, fn query.Func, field, arg string) string {
	switch fn {
	case query.FuncExists:
		return field + " IS NOT MISSING"
	case query.FuncStartsWith:
		return "begins_with(" + field + ", " + b.Bind(arg) + ")"
	default:
		return "contains(" + field + ", " + b.Bind(arg) + ")"
	}
}

func (partiQLDialect) Const(_ *query.Binder, v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// idOrder maps a sort onto the table's sort key. Only the document id can
// be ordered server side; it returns nil for the store's default order.
func idOrder(sort *query.SortBuilder) (*bool, error) {
	if sort.IsEmpty() {
		return nil, nil
	}
	steps := sort.Steps()
	path, ok := steps[0].Key.Path()
	if len(steps) > 1 || !ok || path != "id" {
		return nil, errors.NewValidationError("sort",
			fmt.Sprintf("DynamoDB orders by document id only, got %q", sort.String()))
	}
	forward := steps[0].Direction == query.Ascending
	return &forward, nil
}

// QueryPage fetches one page. A partition key targets one item collection;
// without one, typed queries use the entity type index when configured and
// anything else scans the container's prefix. DynamoDB applies filters
// after the limit, so a page may hold fewer than pageSize documents while
// the token is still set.
func (c *Client) QueryPage(ctx context.Context, container string, key *partitionkey.Key, spec storagemodels.QuerySpec, pageSize int, token string) (storagemodels.Page, error) {
	if strings.TrimSpace(container) == "" {
		return storagemodels.Page{}, errors.NewConfigurationError("container", "name is required")
	}
	if pageSize <= 0 {
		return storagemodels.Page{}, errors.NewValidationError("pageSize", "must be positive")
	}
	if key != nil && key.IsZero() {
		key = nil
	}
	if strings.TrimSpace(spec.Where) != "" {
		return c.statementPage(ctx, container, key, spec, pageSize, token)
	}

	forward, err := idOrder(spec.Sort)
	if err != nil {
		return storagemodels.Page{}, err
	}
	start, err := decodeToken(token)
	if err != nil {
		return storagemodels.Page{}, err
	}

	b := query.NewBinder(Dialect{}, 0)
	switch {
	case key != nil:
		keyCond := b.Alias("#n", PartitionKeyName) + " = " + b.Bind(partitionValue(container, *key))
		return c.queryPage(ctx, container, b, keyCond, "", typed(spec), forward, pageSize, start)
	case spec.EntityType != "" && c.index.enabled():
		keyCond := b.Alias("#n", c.index.PartitionKeyName) + " = " + b.Bind(entityTypeIndexKey(container, spec.EntityType))
		return c.queryPage(ctx, container, b, keyCond, c.index.IndexName, spec.Filter, forward, pageSize, start)
	}

	if forward != nil {
		return storagemodels.Page{}, errors.NewValidationError("sort", "ordering across partitions needs the entity type index")
	}
	filter := query.AllOf(query.StartsWith(query.Field(PartitionKeyName), container+keySeparator), typed(spec))
	return c.scanPage(ctx, container, b, filter, pageSize, start)
}

func typed(spec storagemodels.QuerySpec) query.Expr {
	if spec.EntityType == "" {
		return spec.Filter
	}
	return query.AllOf(query.Eq(query.Field("entityType"), spec.EntityType), spec.Filter)
}

func (c *Client) queryPage(ctx context.Context, container string, b *query.Binder, keyCond, index string, filter query.Expr, forward *bool, pageSize int, start map[string]types.AttributeValue) (storagemodels.Page, error) {
	input := &sdk.QueryInput{
		TableName:              &c.tableName,
		KeyConditionExpression: aws.String(keyCond),
		Limit:                  aws.Int32(int32(pageSize)),
		ExclusiveStartKey:      start,
		ScanIndexForward:       forward,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	if index != "" {
		input.IndexName = aws.String(index)
	}
	if text := b.Render(filter); text != "" {
		input.FilterExpression = aws.String(text)
	}
	names, values, err := expressionAttributes(b)
	if err != nil {
		return storagemodels.Page{}, err
	}
	input.ExpressionAttributeNames = names
	input.ExpressionAttributeValues = values

	c.log.Debug("dynamodb query", "container", container, "key", keyCond, "filter", aws.ToString(input.FilterExpression), "index", index)
	out, err := c.api.Query(ctx, input)
	if err != nil {
		return storagemodels.Page{}, convertError("QueryPage", err)
	}
	return c.page(out.Items, out.LastEvaluatedKey, out.ConsumedCapacity)
}

func (c *Client) scanPage(ctx context.Context, container string, b *query.Binder, filter query.Expr, pageSize int, start map[string]types.AttributeValue) (storagemodels.Page, error) {
	input := &sdk.ScanInput{
		TableName:              &c.tableName,
		FilterExpression:       aws.String(b.Render(filter)),
		Limit:                  aws.Int32(int32(pageSize)),
		ExclusiveStartKey:      start,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	names, values, err := expressionAttributes(b)
	if err != nil {
		return storagemodels.Page{}, err
	}
	input.ExpressionAttributeNames = names
	input.ExpressionAttributeValues = values

	c.log.Debug("dynamodb scan", "container", container, "filter", aws.ToString(input.FilterExpression))
	out, err := c.api.Scan(ctx, input)
	if err != nil {
		return storagemodels.Page{}, convertError("QueryPage", err)
	}
	return c.page(out.Items, out.LastEvaluatedKey, out.ConsumedCapacity)
}

// statementPage runs a raw predicate through PartiQL. Parameters are bound
// positionally in the order given.
func (c *Client) statementPage(ctx context.Context, container string, key *partitionkey.Key, spec storagemodels.QuerySpec, pageSize int, token string) (storagemodels.Page, error) {
	stmt, params, err := c.BuildStatement(container, key, spec)
	if err != nil {
		return storagemodels.Page{}, err
	}
	input := &sdk.ExecuteStatementInput{
		Statement:              aws.String(stmt),
		Parameters:             params,
		Limit:                  aws.Int32(int32(pageSize)),
		ConsistentRead:         aws.Bool(key != nil),
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	if token != "" {
		input.NextToken = aws.String(token)
	}

	c.log.Debug("dynamodb statement", "container", container, "statement", stmt)
	out, err := c.api.ExecuteStatement(ctx, input)
	if err != nil {
		return storagemodels.Page{}, convertError("QueryPage", err)
	}
	page, err := c.page(out.Items, nil, out.ConsumedCapacity)
	if err != nil {
		return storagemodels.Page{}, err
	}
	page.ContinuationToken = aws.ToString(out.NextToken)
	return page, nil
}

// BuildStatement renders spec as a PartiQL SELECT over the table. The
// partition condition comes first, then the entity type, the structured
// filter and the raw Where clause.
func (c *Client) BuildStatement(container string, key *partitionkey.Key, spec storagemodels.QuerySpec) (string, []types.AttributeValue, error) {
	forward, err := idOrder(spec.Sort)
	if err != nil {
		return "", nil, err
	}

	b := query.NewBinder(partiQLDialect{}, 0)
	var conds []string
	if key != nil {
		conds = append(conds, strconv.Quote(PartitionKeyName)+" = "+b.Bind(partitionValue(container, *key)))
	} else {
		if forward != nil {
			return "", nil, errors.NewValidationError("sort", "ordering across partitions needs a partition key")
		}
		conds = append(conds, "begins_with("+strconv.Quote(PartitionKeyName)+", "+b.Bind(container+keySeparator)+")")
	}
	if text := b.Render(typed(spec)); text != "" {
		conds = append(conds, text)
	}
	if where := strings.TrimSpace(spec.Where); where != "" {
		conds = append(conds, "("+where+")")
	}

	stmt := fmt.Sprintf("SELECT * FROM %s WHERE %s", strconv.Quote(c.tableName), strings.Join(conds, " AND "))
	if forward != nil {
		dir := "DESC"
		if *forward {
			dir = "ASC"
		}
		stmt += " ORDER BY " + strconv.Quote(SortKeyName) + " " + dir
	}

	values := b.Params()
	params := make([]types.AttributeValue, 0, len(values)+len(spec.Parameters))
	for _, p := range values {
		av, err := attributevalue.Marshal(p.Value)
		if err != nil {
			return "", nil, errors.NewValidationError("parameters", err.Error())
		}
		params = append(params, av)
	}
	for _, p := range spec.Parameters {
		av, err := attributevalue.Marshal(p.Value)
		if err != nil {
			return "", nil, errors.NewValidationError("parameters", fmt.Sprintf("%s: %v", p.Name, err))
		}
		params = append(params, av)
	}
	return stmt, params, nil
}

func expressionAttributes(b *query.Binder) (map[string]string, map[string]types.AttributeValue, error) {
	names := b.Names()
	params := b.Params()
	values := make(map[string]types.AttributeValue, len(params))
	for _, p := range params {
		av, err := attributevalue.Marshal(p.Value)
		if err != nil {
			return nil, nil, errors.NewValidationError("filter", fmt.Sprintf("%s: %v", p.Name, err))
		}
		values[p.Name] = av
	}
	if len(values) == 0 {
		values = nil
	}
	return names, values, nil
}

func (c *Client) page(items []map[string]types.AttributeValue, last map[string]types.AttributeValue, cc *types.ConsumedCapacity) (storagemodels.Page, error) {
	page := storagemodels.Page{
		Items:         make([][]byte, 0, len(items)),
		RequestCharge: capacity(cc),
	}
	for _, item := range items {
		body, _, err := c.fromItem(item)
		if err != nil {
			return storagemodels.Page{}, err
		}
		page.Items = append(page.Items, body)
	}
	token, err := encodeToken(last)
	if err != nil {
		return storagemodels.Page{}, err
	}
	page.ContinuationToken = token
	return page, nil
}

// encodeToken turns a LastEvaluatedKey into an opaque URL-safe string.
func encodeToken(last map[string]types.AttributeValue) (string, error) {
	if len(last) == 0 {
		return "", nil
	}
	var key map[string]any
	if err := attributevalue.UnmarshalMap(last, &key); err != nil {
		return "", fmt.Errorf("failed to encode continuation token: %w", err)
	}
	raw, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to encode continuation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeToken(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.NewValidationError("continuationToken", "malformed token")
	}
	var key map[string]any
	if err := json.Unmarshal(raw, &key); err != nil || len(key) == 0 {
		return nil, errors.NewValidationError("continuationToken", "malformed token")
	}
	start, err := attributevalue.MarshalMap(key)
	if err != nil {
		return nil, errors.NewValidationError("continuationToken", err.Error())
	}
	return start, nil
}
