/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suparena/cleardata/datastore"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/query"
	"github.com/suparena/cleardata/storagemodels"
)

// VersionColumn is the column checked by optimistic locking.
const VersionColumn = "version"

type changeKind int

const (
	changeInsert changeKind = iota
	changeUpdate
	changeDelete
)

type change[T any, ID comparable] struct {
	kind   changeKind
	entity *T
	id     ID
}

// Table is the relational facade for entity T stored in one table.
//
// Queued changes are held by the Table until SaveChanges; a Table is
// not safe for concurrent use while changes are queued.
type Table[T any, ID comparable] struct {
	db       *DB
	name     string
	idColumn string
	mapper   EntityMapper[T, ID]
	dialect  columns
	pending  []change[T, ID]
}

var _ datastore.RelationalContext[struct{ ID int }, int] = (*Table[struct{ ID int }, int])(nil)

// TableOption configures a Table
type TableOption func(*tableOptions)

type tableOptions struct {
	names query.NameMapper
}

// WithNameMapper sets how filter and sort paths map to columns. The
// default is query.SnakeCase.
func WithNameMapper(m query.NameMapper) TableOption {
	return func(o *tableOptions) {
		o.names = m
	}
}

// NewTable returns the facade for table name with primary key idColumn.
func NewTable[T any, ID comparable](db *DB, name, idColumn string, mapper EntityMapper[T, ID], opts ...TableOption) (*Table[T, ID], error) {
	if db == nil {
		return nil, errors.NewConfigurationError("db", "a connection is required")
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(idColumn) == "" {
		return nil, errors.NewConfigurationError("table", "name and id column are required")
	}
	if mapper == nil {
		return nil, errors.NewConfigurationError("mapper", "an entity mapper is required")
	}
	o := tableOptions{names: query.SnakeCase}
	for _, opt := range opts {
		opt(&o)
	}
	return &Table[T, ID]{
		db:       db,
		name:     name,
		idColumn: idColumn,
		mapper:   mapper,
		dialect:  columns{Dialect: db.dialect, names: o.names},
	}, nil
}

// Name returns the table name.
func (t *Table[T, ID]) Name() string { return t.name }

func (t *Table[T, ID]) quote(col string) string { return t.dialect.Quote(col) }

func (t *Table[T, ID]) table() string { return quotePath(t.dialect.Dialect, t.name) }

func (t *Table[T, ID]) selectList() string {
	cols := t.mapper.Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = t.quote(c)
	}
	return strings.Join(quoted, ", ")
}

// Get reads one row by primary key.
func (t *Table[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	b := query.NewBinder(t.dialect, 0)
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", t.selectList(), t.table(), t.quote(t.idColumn), b.Bind(id))

	rows, err := t.collect(ctx, "Get", stmt, b)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError(t.name, fmt.Sprint(id))
	}
	return &rows[0], nil
}

// Find returns the first row matching filter in primary key order, or nil
// when none matched.
func (t *Table[T, ID]) Find(ctx context.Context, filter query.Expr) (*T, error) {
	rows, err := t.page(ctx, "Find", filter, nil, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// List returns every row matching filter.
func (t *Table[T, ID]) List(ctx context.Context, filter query.Expr, sort *query.SortBuilder) ([]T, error) {
	b := query.NewBinder(t.dialect, 0)
	stmt := "SELECT " + t.selectList() + " FROM " + t.table() + t.where(b, filter)
	orderBy, err := t.dialect.orderBy(sort)
	if err != nil {
		return nil, err
	}
	if orderBy != "" {
		stmt += " " + orderBy
	}
	return t.collect(ctx, "List", stmt, b)
}

// GetPaged fetches one page. The token encodes the row offset of the next
// page; rows inserted or deleted between calls shift the pages. Without a
// sort, rows are ordered by primary key.
func (t *Table[T, ID]) GetPaged(ctx context.Context, filter query.Expr, sort *query.SortBuilder, pageSize int, token string) (storagemodels.PagedResult[T], error) {
	if pageSize <= 0 {
		return storagemodels.PagedResult[T]{}, errors.NewValidationError("pageSize", "must be positive")
	}
	offset, err := decodeOffset(token)
	if err != nil {
		return storagemodels.PagedResult[T]{}, err
	}

	rows, err := t.page(ctx, "GetPaged", filter, sort, offset, pageSize+1)
	if err != nil {
		return storagemodels.PagedResult[T]{}, err
	}
	result := storagemodels.PagedResult[T]{Items: rows}
	if len(rows) > pageSize {
		result.Items = rows[:pageSize]
		result.ContinuationToken = encodeOffset(offset + pageSize)
	}
	return result, nil
}

func (t *Table[T, ID]) page(ctx context.Context, op string, filter query.Expr, sort *query.SortBuilder, offset, limit int) ([]T, error) {
	b := query.NewBinder(t.dialect, 0)
	stmt := "SELECT " + t.selectList() + " FROM " + t.table() + t.where(b, filter)

	orderBy, err := t.dialect.orderBy(sort)
	if err != nil {
		return nil, err
	}
	if orderBy == "" {
		orderBy = "ORDER BY " + t.quote(t.idColumn) + " ASC"
	}
	stmt += " " + orderBy + " " + t.dialect.Limit(b, offset, limit)
	return t.collect(ctx, op, stmt, b)
}

func (t *Table[T, ID]) where(b *query.Binder, filter query.Expr) string {
	if text := b.Render(filter); text != "" {
		return " WHERE " + text
	}
	return ""
}

func (t *Table[T, ID]) collect(ctx context.Context, op, stmt string, b *query.Binder) ([]T, error) {
	out := []T{}
	err := t.db.query(ctx, op, stmt, args(b), func(rows *sql.Rows) error {
		v, err := t.mapper.FromRow(rows)
		if err != nil {
			return err
		}
		out = append(out, *v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QuerySQL runs a raw SELECT whose columns match the mapper's Columns.
func (t *Table[T, ID]) QuerySQL(ctx context.Context, statement string, args ...any) ([]T, error) {
	return QuerySQL[T](ctx, t.db, t.mapper.FromRow, statement, args...)
}

// Insert adds one row. A Versioned entity with version 0 is stored as
// version 1.
func (t *Table[T, ID]) Insert(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.NewValidationError("entity", "is required")
	}
	if v, ok := any(entity).(Versioned); ok && v.GetVersion() == 0 {
		v.SetVersion(1)
	}
	values, err := t.mapper.ToRow(entity)
	if err != nil {
		return fmt.Errorf("failed to map entity to row: %w", err)
	}

	b := query.NewBinder(t.dialect, 0)
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.Bind(v)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.table(), t.selectList(), strings.Join(placeholders, ", "))

	_, err = t.db.ExecSQL(ctx, stmt, args(b)...)
	return relabel(err, "Insert")
}

// Update replaces the row with the entity's primary key. A Versioned
// entity is only written when the stored version matches; on success its
// version is incremented.
func (t *Table[T, ID]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.NewValidationError("entity", "is required")
	}
	id := t.mapper.GetID(entity)
	values, err := t.mapper.ToRow(entity)
	if err != nil {
		return fmt.Errorf("failed to map entity to row: %w", err)
	}

	versioned, isVersioned := any(entity).(Versioned)
	var current int64
	if isVersioned {
		current = versioned.GetVersion()
	}

	b := query.NewBinder(t.dialect, 0)
	cols := t.mapper.Columns()
	sets := make([]string, 0, len(cols))
	for i, col := range cols {
		if col == t.idColumn {
			continue
		}
		v := values[i]
		if isVersioned && col == VersionColumn {
			v = current + 1
		}
		sets = append(sets, t.quote(col)+" = "+b.Bind(v))
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s", t.table(), strings.Join(sets, ", "), t.quote(t.idColumn), b.Bind(id))
	if isVersioned {
		stmt += " AND " + t.quote(VersionColumn) + " = " + b.Bind(current)
	}

	n, err := t.db.ExecSQL(ctx, stmt, args(b)...)
	if err != nil {
		return relabel(err, "Update")
	}
	if n == 0 {
		if !isVersioned {
			return errors.NewNotFoundError(t.name, fmt.Sprint(id))
		}
		return t.lockFailure(ctx, id, current)
	}
	if isVersioned {
		versioned.SetVersion(current + 1)
	}
	return nil
}

// lockFailure tells a missing row from a stale version.
func (t *Table[T, ID]) lockFailure(ctx context.Context, id ID, expected int64) error {
	b := query.NewBinder(t.dialect, 0)
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", t.quote(VersionColumn), t.table(), t.quote(t.idColumn), b.Bind(id))

	ctx, cancel := t.db.withTimeout(ctx)
	defer cancel()
	var actual int64
	err := t.db.executor(ctx).QueryRowContext(ctx, stmt, args(b)...).Scan(&actual)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(t.name, fmt.Sprint(id))
	}
	if err != nil {
		return fmt.Errorf("failed to check entity version: %w", err)
	}
	return errors.NewConditionFailedError("Update",
		fmt.Sprintf("%s %v: expected version %d, found %d", t.name, id, expected, actual))
}

// Delete removes one row by primary key.
func (t *Table[T, ID]) Delete(ctx context.Context, id ID) error {
	b := query.NewBinder(t.dialect, 0)
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", t.table(), t.quote(t.idColumn), b.Bind(id))

	n, err := t.db.ExecSQL(ctx, stmt, args(b)...)
	if err != nil {
		return relabel(err, "Delete")
	}
	if n == 0 {
		return errors.NewNotFoundError(t.name, fmt.Sprint(id))
	}
	return nil
}

// DeleteWhere removes every row matching filter and returns the count. A
// nil filter is rejected; pass query.True() to empty the table.
func (t *Table[T, ID]) DeleteWhere(ctx context.Context, filter query.Expr) (int64, error) {
	if filter == nil {
		return 0, errors.NewValidationError("filter", "is required, use query.True() to match every row")
	}
	b := query.NewBinder(t.dialect, 0)
	stmt := "DELETE FROM " + t.table() + t.where(b, filter)
	n, err := t.db.ExecSQL(ctx, stmt, args(b)...)
	return n, relabel(err, "DeleteWhere")
}

// AddToBatch queues inserts for the next SaveChanges.
func (t *Table[T, ID]) AddToBatch(entities ...*T) {
	for _, e := range entities {
		t.pending = append(t.pending, change[T, ID]{kind: changeInsert, entity: e})
	}
}

// UpdateInBatch queues updates for the next SaveChanges.
func (t *Table[T, ID]) UpdateInBatch(entities ...*T) {
	for _, e := range entities {
		t.pending = append(t.pending, change[T, ID]{kind: changeUpdate, entity: e})
	}
}

// RemoveInBatch queues deletes for the next SaveChanges.
func (t *Table[T, ID]) RemoveInBatch(ids ...ID) {
	for _, id := range ids {
		t.pending = append(t.pending, change[T, ID]{kind: changeDelete, id: id})
	}
}

// Pending returns the number of queued changes.
func (t *Table[T, ID]) Pending() int { return len(t.pending) }

// SaveChanges applies the queued changes in order inside one transaction
// and returns the number of rows written. On failure nothing is committed
// and the queue is kept.
func (t *Table[T, ID]) SaveChanges(ctx context.Context) (int64, error) {
	if len(t.pending) == 0 {
		return 0, nil
	}

	// Insert and Update bump versions in memory; a rollback undoes that.
	versions := make(map[Versioned]int64)
	for _, c := range t.pending {
		if v, ok := any(c.entity).(Versioned); ok && c.entity != nil {
			versions[v] = v.GetVersion()
		}
	}

	var written int64
	err := t.db.WithTransaction(ctx, func(ctx context.Context) error {
		written = 0
		for i, c := range t.pending {
			var err error
			switch c.kind {
			case changeInsert:
				err = t.Insert(ctx, c.entity)
			case changeUpdate:
				err = t.Update(ctx, c.entity)
			case changeDelete:
				err = t.Delete(ctx, c.id)
			}
			if err != nil {
				return fmt.Errorf("change %d of %d: %w", i+1, len(t.pending), err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		for v, version := range versions {
			v.SetVersion(version)
		}
		t.db.log.Warn("save changes rolled back", "table", t.name, "pending", len(t.pending), "error", err)
		return 0, err
	}

	t.db.log.Debug("changes saved", "table", t.name, "rows", written)
	t.pending = nil
	return written, nil
}

// ExecSQL runs a raw statement on the table's connection.
func (t *Table[T, ID]) ExecSQL(ctx context.Context, statement string, args ...any) (int64, error) {
	return t.db.ExecSQL(ctx, statement, args...)
}

func args(b *query.Binder) []any {
	params := b.Params()
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = p.Value
	}
	return out
}

// relabel renames the operation of a StoreError raised by ExecSQL.
func relabel(err error, op string) error {
	var se *errors.StoreError
	if errors.As(err, &se) && se.Op == "ExecSQL" {
		return errors.NewStoreError(op, se.StatusCode, se.Err)
	}
	return err
}

type offsetToken struct {
	Offset int `json:"offset"`
}

func encodeOffset(offset int) string {
	raw, _ := json.Marshal(offsetToken{Offset: offset})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeOffset(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, errors.NewValidationError("continuationToken", "malformed token")
	}
	var tok offsetToken
	if err := json.Unmarshal(raw, &tok); err != nil || tok.Offset < 0 {
		return 0, errors.NewValidationError("continuationToken", "malformed token")
	}
	return tok.Offset, nil
}
