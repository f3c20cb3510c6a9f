/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"net/http"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/suparena/cleardata/errors"
)

// convertError maps driver errors that have a semantic meaning onto
// *errors.StoreError. Anything else is returned unchanged.
func convertError(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewStoreError(op, http.StatusNotFound, err)
	}
	if status := driverStatus(err); status != 0 {
		return errors.NewStoreError(op, status, err)
	}
	return err
}

func driverStatus(err error) int {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return http.StatusConflict
		case "23503", "23502", "23514":
			return http.StatusBadRequest
		case "40001", "40P01":
			return http.StatusTooManyRequests
		}
		return 0
	}

	var myErr *mysql.MySQLError
	if stderrors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return http.StatusConflict
		case 1451, 1452, 1048:
			return http.StatusBadRequest
		case 1205, 1213:
			return http.StatusTooManyRequests
		}
		return 0
	}

	var msErr mssql.Error
	if stderrors.As(err, &msErr) {
		switch msErr.Number {
		case 2601, 2627:
			return http.StatusConflict
		case 547, 515:
			return http.StatusBadRequest
		case 1205:
			return http.StatusTooManyRequests
		}
	}
	return 0
}
