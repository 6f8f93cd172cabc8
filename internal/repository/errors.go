package repository

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

func pqCode(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

func isPQ(err error, code pq.ErrorCode) bool {
	pqErr, ok := pqCode(err)
	return ok && pqErr.Code == code
}

// nullID stores 0 as NULL for optional foreign keys.
func nullID(id int) interface{} {
	if id == 0 {
		return nil
	}
	return id
}
