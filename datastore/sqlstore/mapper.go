/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/suparena/cleardata/query"
)

// RowScanner reads the current row.
type RowScanner[T any] func(rows *sql.Rows) (*T, error)

// EntityMapper maps between an entity and its table row.
type EntityMapper[T any, ID comparable] interface {
	// Columns lists the columns in the order ToRow returns values.
	Columns() []string
	// ToRow returns the column values of entity.
	ToRow(entity *T) ([]any, error)
	// FromRow scans the current row, selected with Columns.
	FromRow(rows *sql.Rows) (*T, error)
	GetID(entity *T) ID
}

// Versioned entities are updated with an optimistic lock on their version
// column.
type Versioned interface {
	GetVersion() int64
	SetVersion(version int64)
}

// ReflectionMapper maps exported struct fields to columns. The column name
// comes from the db tag, otherwise from the field's json name passed
// through a NameMapper. Fields tagged db:"-" are skipped.
type ReflectionMapper[T any, ID comparable] struct {
	columns  []string
	fields   [][]int
	idColumn string
	idField  []int
}

// NewReflectionMapper builds a mapper for T whose primary key is the
// column idColumn. names defaults to query.SnakeCase.
func NewReflectionMapper[T any, ID comparable](idColumn string, names query.NameMapper) (*ReflectionMapper[T, ID], error) {
	if names == nil {
		names = query.SnakeCase
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("reflection mapper needs a struct type, got %s", t)
	}

	m := &ReflectionMapper[T, ID]{idColumn: idColumn}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		col := f.Tag.Get("db")
		if col == "-" {
			continue
		}
		if col == "" {
			col = names(jsonName(f))
		}
		if col == idColumn {
			m.idField = f.Index
		}
		m.columns = append(m.columns, col)
		m.fields = append(m.fields, f.Index)
	}
	if m.idField == nil {
		return nil, fmt.Errorf("type %s has no field mapped to column %q", t, idColumn)
	}
	return m, nil
}

func jsonName(f reflect.StructField) string {
	if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
		return tag
	}
	return f.Name
}

func (m *ReflectionMapper[T, ID]) Columns() []string {
	return m.columns
}

func (m *ReflectionMapper[T, ID]) ToRow(entity *T) ([]any, error) {
	v := reflect.ValueOf(entity).Elem()
	values := make([]any, len(m.fields))
	for i, idx := range m.fields {
		values[i] = v.FieldByIndex(idx).Interface()
	}
	return values, nil
}

func (m *ReflectionMapper[T, ID]) FromRow(rows *sql.Rows) (*T, error) {
	entity := new(T)
	v := reflect.ValueOf(entity).Elem()
	dest := make([]any, len(m.fields))
	for i, idx := range m.fields {
		dest[i] = v.FieldByIndex(idx).Addr().Interface()
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	return entity, nil
}

func (m *ReflectionMapper[T, ID]) GetID(entity *T) ID {
	id, _ := reflect.ValueOf(entity).Elem().FieldByIndex(m.idField).Interface().(ID)
	return id
}
