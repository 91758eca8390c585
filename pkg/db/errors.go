package db

import "strings"

// IsUniqueViolation reports whether err is a SQLite unique constraint failure.
// When column is provided only failures naming that column match.
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return column == "" || strings.Contains(msg, column)
}
