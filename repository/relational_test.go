/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/cleardata/datastore/sqlstore"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/query"
	"github.com/suparena/cleardata/repository"
)

type customer struct {
	ID    string `db:"id"`
	Name  string
	Email string
}

func newCustomers(t *testing.T) (*repository.RelationalRepository[customer, string], sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})

	mapper, err := sqlstore.NewReflectionMapper[customer, string]("id", nil)
	require.NoError(t, err)
	table, err := sqlstore.NewTable(sqlstore.New(sqlDB, sqlstore.Postgres{}), "customers", "id", sqlstore.EntityMapper[customer, string](mapper))
	require.NoError(t, err)
	repo, err := repository.NewRelationalRepository[customer, string](table)
	require.NoError(t, err)
	return repo, mock
}

func TestNewRelationalRepository(t *testing.T) {
	_, err := repository.NewRelationalRepository[customer, string](nil)
	assert.True(t, errors.IsConfiguration(err))
}

func TestRelationalRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo, mock := newCustomers(t)
	cols := []string{"id", "name", "email"}

	mock.ExpectExec(`INSERT INTO "customers" ("id", "name", "email") VALUES ($1, $2, $3)`).
		WithArgs("c1", "Ann", "ann@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(ctx, &customer{ID: "c1", Name: "Ann", Email: "ann@example.com"}))

	mock.ExpectQuery(`SELECT "id", "name", "email" FROM "customers" WHERE "id" = $1`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("c1", "Ann", "ann@example.com"))
	got, err := repo.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)

	mock.ExpectQuery(`SELECT "id", "name", "email" FROM "customers" WHERE "name" = $1 ORDER BY "email" DESC`).
		WithArgs("Ann").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("c1", "Ann", "ann@example.com").AddRow("c2", "Ann", "a2@example.com"))
	all, err := repo.FindAll(ctx, query.Eq(query.Field("name"), "Ann"), query.NewSort().ThenByDescending(query.Key("email")))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mock.ExpectExec(`DELETE FROM "customers" WHERE "id" = $1`).
		WithArgs("c9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, errors.IsNotFound(repo.Delete(ctx, "c9")))
}

func TestRelationalRepositoryBatches(t *testing.T) {
	ctx := context.Background()
	repo, mock := newCustomers(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "customers" ("id", "name", "email") VALUES ($1, $2, $3)`).
		WithArgs("c1", "Ann", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "customers" ("id", "name", "email") VALUES ($1, $2, $3)`).
		WithArgs("c2", "Bob", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.CreateAll(ctx, &customer{ID: "c1", Name: "Ann"}, &customer{ID: "c2", Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "customers" WHERE "id" = $1`).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "customers" WHERE "id" = $1`).
		WithArgs("c2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err = repo.DeleteAll(ctx, "c1", "c2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
