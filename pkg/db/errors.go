package db

import "strings"

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation from Postgres or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsSerializationFailure reports whether the error is a transaction conflict
// that is safe to retry as a whole unit (Postgres 40001/40P01, sqlite busy).
func IsSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "SQLSTATE 40001") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "SQLSTATE 40P01") ||
		strings.Contains(msg, "database is locked")
}
