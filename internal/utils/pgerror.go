package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsPGUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func IsPGUniqueViolation(err error) bool {
	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return pge.Code == pgUniqueViolation
	}
	return false
}

// StoreErrorBody echoes a persistence failure to the client as-is.
// PostgreSQL errors keep their SQLSTATE, severity and detail.
func StoreErrorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		body["code"] = pge.Code
		body["severity"] = pge.Severity
		if pge.Detail != "" {
			body["detail"] = pge.Detail
		}
		if pge.ConstraintName != "" {
			body["constraint"] = pge.ConstraintName
		}
	}
	return body
}
