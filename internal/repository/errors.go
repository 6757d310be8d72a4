package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}

// isInvalidText matches postgres rejecting a malformed literal, such as a
// non-UUID string bound to a UUID column.
func isInvalidText(err error) bool {
	return pqCode(err) == pqInvalidText
}

// IsMissing reports whether err means the addressed row does not exist. An id
// that is not even a valid UUID cannot name a row, so it counts as missing.
func IsMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || isInvalidText(err)
}

func normalizePage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize, (page - 1) * pageSize
}
