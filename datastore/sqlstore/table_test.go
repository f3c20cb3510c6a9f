/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/query"
)

type account struct {
	ID      int64 `db:"id"`
	Owner   string
	Balance float64
	Version int64
}

func (a *account) GetVersion() int64        { return a.Version }
func (a *account) SetVersion(version int64) { a.Version = version }

var accountColumns = []string{"id", "owner", "balance", "version"}

func newMockTable(t *testing.T, dialect Dialect) (*Table[account, int64], sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})

	mapper, err := NewReflectionMapper[account, int64]("id", nil)
	require.NoError(t, err)
	table, err := NewTable(New(sqlDB, dialect), "accounts", "id", EntityMapper[account, int64](mapper))
	require.NoError(t, err)
	return table, mock
}

func TestReflectionMapper(t *testing.T) {
	m, err := NewReflectionMapper[account, int64]("id", nil)
	require.NoError(t, err)
	assert.Equal(t, accountColumns, m.Columns())

	values, err := m.ToRow(&account{ID: 7, Owner: "ann", Balance: 10, Version: 2})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), "ann", 10.0, int64(2)}, values)
	assert.Equal(t, int64(7), m.GetID(&account{ID: 7}))

	_, err = NewReflectionMapper[account, int64]("account_id", nil)
	assert.Error(t, err)
}

func TestDialects(t *testing.T) {
	filter := query.AllOf(
		query.Eq(query.Field("status"), "open"),
		query.StartsWith(query.Field("customerName"), "50%"),
	)
	tests := []struct {
		dialect Dialect
		where   string
		limit   string
	}{
		{SQLServer{}, "([status] = @p1 AND [customer_name] LIKE @p2 ESCAPE '!')", "OFFSET @p3 ROWS FETCH NEXT @p4 ROWS ONLY"},
		{Postgres{}, `("status" = $1 AND "customer_name" LIKE $2 ESCAPE '!')`, "LIMIT $3 OFFSET $4"},
		{MySQL{}, "(`status` = ? AND `customer_name` LIKE ? ESCAPE '!')", "LIMIT ? OFFSET ?"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			b := query.NewBinder(columns{Dialect: tt.dialect, names: query.SnakeCase}, 0)
			assert.Equal(t, tt.where, b.Render(filter))
			assert.Equal(t, tt.limit, tt.dialect.Limit(b, 20, 10))

			params := b.Params()
			require.Len(t, params, 4)
			assert.Equal(t, "50!%%", params[1].Value)

			d, err := DialectFor(tt.dialect.DriverName())
			require.NoError(t, err)
			assert.Equal(t, tt.dialect.Name(), d.Name())
		})
	}

	_, err := DialectFor("oracle")
	assert.True(t, errors.IsConfiguration(err))
}

func TestTableGet(t *testing.T) {
	ctx := context.Background()
	table, mock := newMockTable(t, Postgres{})
	const stmt = `SELECT "id", "owner", "balance", "version" FROM "accounts" WHERE "id" = $1`

	mock.ExpectQuery(stmt).WithArgs(7).
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(7, "ann", 50.0, 3))
	got, err := table.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, &account{ID: 7, Owner: "ann", Balance: 50, Version: 3}, got)

	mock.ExpectQuery(stmt).WithArgs(8).WillReturnRows(sqlmock.NewRows(accountColumns))
	_, err = table.Get(ctx, 8)
	assert.True(t, errors.IsNotFound(err))
}

func TestTableFind(t *testing.T) {
	table, mock := newMockTable(t, MySQL{})

	mock.ExpectQuery("SELECT `id`, `owner`, `balance`, `version` FROM `accounts` WHERE `owner` = ? ORDER BY `id` ASC LIMIT ? OFFSET ?").
		WithArgs("bob", 1, 0).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	got, err := table.Find(context.Background(), query.Eq(query.Field("owner"), "bob"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTableGetPaged(t *testing.T) {
	ctx := context.Background()
	table, mock := newMockTable(t, SQLServer{})
	const stmt = "SELECT [id], [owner], [balance], [version] FROM [accounts] WHERE [balance] > @p1 " +
		"ORDER BY [balance] DESC OFFSET @p2 ROWS FETCH NEXT @p3 ROWS ONLY"
	filter := query.Gt(query.Field("balance"), 100)
	sort := query.NewSort().ThenByDescending(query.Key("balance"))

	mock.ExpectQuery(stmt).WithArgs(100, 0, 3).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(1, "a", 300.0, 1).
			AddRow(2, "b", 200.0, 1).
			AddRow(3, "c", 150.0, 1))
	first, err := table.GetPaged(ctx, filter, sort, 2, "")
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, int64(2), first.Items[1].ID)
	require.NotEmpty(t, first.ContinuationToken)

	mock.ExpectQuery(stmt).WithArgs(100, 2, 3).
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(3, "c", 150.0, 1))
	second, err := table.GetPaged(ctx, filter, sort, 2, first.ContinuationToken)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.ContinuationToken)

	_, err = table.GetPaged(ctx, filter, sort, 2, "not-a-token")
	assert.True(t, errors.IsValidationError(err))

	_, err = table.GetPaged(ctx, filter, query.NewSort().ThenBy(query.Computed("len", func(map[string]any) any { return 0 })), 2, "")
	assert.True(t, errors.IsValidationError(err))
}

func TestTableInsert(t *testing.T) {
	table, mock := newMockTable(t, Postgres{})

	mock.ExpectExec(`INSERT INTO "accounts" ("id", "owner", "balance", "version") VALUES ($1, $2, $3, $4)`).
		WithArgs(7, "ann", 10.0, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	a := &account{ID: 7, Owner: "ann", Balance: 10}
	require.NoError(t, table.Insert(context.Background(), a))
	assert.Equal(t, int64(1), a.Version)

	mock.ExpectExec(`INSERT INTO "accounts" ("id", "owner", "balance", "version") VALUES ($1, $2, $3, $4)`).
		WithArgs(7, "ann", 10.0, 1).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})
	err := table.Insert(context.Background(), a)
	assert.True(t, errors.IsAlreadyExists(err))
	var se *errors.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Insert", se.Op)
}

func TestTableUpdate(t *testing.T) {
	const (
		update = `UPDATE "accounts" SET "owner" = $1, "balance" = $2, "version" = $3 WHERE "id" = $4 AND "version" = $5`
		check  = `SELECT "version" FROM "accounts" WHERE "id" = $1`
	)
	ctx := context.Background()

	t.Run("increments version", func(t *testing.T) {
		table, mock := newMockTable(t, Postgres{})
		mock.ExpectExec(update).WithArgs("ann", 50.0, 4, 7, 3).WillReturnResult(sqlmock.NewResult(0, 1))

		a := &account{ID: 7, Owner: "ann", Balance: 50, Version: 3}
		require.NoError(t, table.Update(ctx, a))
		assert.Equal(t, int64(4), a.Version)
	})

	t.Run("stale version", func(t *testing.T) {
		table, mock := newMockTable(t, Postgres{})
		mock.ExpectExec(update).WithArgs("ann", 50.0, 4, 7, 3).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(check).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(5))

		a := &account{ID: 7, Owner: "ann", Balance: 50, Version: 3}
		err := table.Update(ctx, a)
		assert.True(t, errors.IsConditionFailed(err))
		assert.Equal(t, int64(3), a.Version)
	})

	t.Run("missing row", func(t *testing.T) {
		table, mock := newMockTable(t, Postgres{})
		mock.ExpectExec(update).WithArgs("ann", 50.0, 4, 7, 3).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(check).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"version"}))

		err := table.Update(ctx, &account{ID: 7, Owner: "ann", Balance: 50, Version: 3})
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestTableDelete(t *testing.T) {
	ctx := context.Background()
	table, mock := newMockTable(t, Postgres{})

	mock.ExpectExec(`DELETE FROM "accounts" WHERE "id" = $1`).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, errors.IsNotFound(table.Delete(ctx, 7)))

	mock.ExpectExec(`DELETE FROM "accounts" WHERE "balance" < $1`).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := table.DeleteWhere(ctx, query.Lt(query.Field("balance"), 1))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = table.DeleteWhere(ctx, nil)
	assert.True(t, errors.IsValidationError(err))
}

func TestSaveChanges(t *testing.T) {
	const (
		insert = `INSERT INTO "accounts" ("id", "owner", "balance", "version") VALUES ($1, $2, $3, $4)`
		del    = `DELETE FROM "accounts" WHERE "id" = $1`
	)
	ctx := context.Background()

	t.Run("commits in order", func(t *testing.T) {
		table, mock := newMockTable(t, Postgres{})
		mock.ExpectBegin()
		mock.ExpectExec(insert).WithArgs(1, "a", 5.0, 1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(del).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		table.AddToBatch(&account{ID: 1, Owner: "a", Balance: 5})
		table.RemoveInBatch(9)
		n, err := table.SaveChanges(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Zero(t, table.Pending())
	})

	t.Run("rolls back and keeps the queue", func(t *testing.T) {
		table, mock := newMockTable(t, Postgres{})
		mock.ExpectBegin()
		mock.ExpectExec(insert).WithArgs(1, "a", 5.0, 1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(del).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		table.AddToBatch(&account{ID: 1, Owner: "a", Balance: 5})
		table.RemoveInBatch(9)
		n, err := table.SaveChanges(ctx)
		assert.True(t, errors.IsNotFound(err))
		assert.Contains(t, err.Error(), "change 2 of 2")
		assert.Zero(t, n)
		assert.Equal(t, 2, table.Pending())
	})

	t.Run("retry after rollback keeps versions", func(t *testing.T) {
		const update = `UPDATE "accounts" SET "owner" = $1, "balance" = $2, "version" = $3 WHERE "id" = $4 AND "version" = $5`
		table, mock := newMockTable(t, Postgres{})
		mock.ExpectBegin()
		mock.ExpectExec(update).WithArgs("ann", 50.0, 4, 7, 3).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insert).WithArgs(1, "a", 5.0, 1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(del).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		a := &account{ID: 7, Owner: "ann", Balance: 50, Version: 3}
		b := &account{ID: 1, Owner: "a", Balance: 5}
		table.UpdateInBatch(a)
		table.AddToBatch(b)
		table.RemoveInBatch(9)
		_, err := table.SaveChanges(ctx)
		require.Error(t, err)
		assert.Equal(t, int64(3), a.Version)
		assert.Zero(t, b.Version)

		mock.ExpectBegin()
		mock.ExpectExec(update).WithArgs("ann", 50.0, 4, 7, 3).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insert).WithArgs(1, "a", 5.0, 1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(del).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		n, err := table.SaveChanges(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.Equal(t, int64(4), a.Version)
		assert.Equal(t, int64(1), b.Version)
	})

	t.Run("nothing queued", func(t *testing.T) {
		table, _ := newMockTable(t, Postgres{})
		n, err := table.SaveChanges(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestWithTransactionNested(t *testing.T) {
	table, mock := newMockTable(t, Postgres{})
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE accounts SET balance = 0").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM audit").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := table.db.WithTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := table.ExecSQL(ctx, "UPDATE accounts SET balance = 0"); err != nil {
			return err
		}
		return table.db.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := table.ExecSQL(ctx, "DELETE FROM audit")
			return err
		})
	})
	require.NoError(t, err)
}

func TestQuerySQL(t *testing.T) {
	table, mock := newMockTable(t, Postgres{})
	mock.ExpectQuery(`SELECT "id", "owner", "balance", "version" FROM "accounts" WHERE owner LIKE $1`).
		WithArgs("a%").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(1, "ann", 1.0, 1).AddRow(2, "amy", 2.0, 1))

	rows, err := table.QuerySQL(context.Background(),
		`SELECT "id", "owner", "balance", "version" FROM "accounts" WHERE owner LIKE $1`, "a%")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "amy", rows[1].Owner)
}

func TestConvertError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"postgres unique", &pq.Error{Code: "23505"}, http.StatusConflict},
		{"postgres foreign key", &pq.Error{Code: "23503"}, http.StatusBadRequest},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, http.StatusConflict},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, http.StatusTooManyRequests},
		{"sqlserver unique", mssql.Error{Number: 2627}, http.StatusConflict},
		{"no rows", sql.ErrNoRows, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := convertError("Insert", tt.err)
			assert.Equal(t, tt.status, errors.StatusCode(err))
			var se *errors.StoreError
			assert.True(t, errors.As(err, &se))
		})
	}

	plain := stderrors.New("boom")
	assert.Same(t, plain, convertError("Insert", plain))
	assert.Equal(t, context.Canceled, convertError("Insert", context.Canceled))
}
