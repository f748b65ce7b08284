package store

import "strings"

// isUniqueViolation recognizes sqlite's UNIQUE constraint failure
// message. modernc.org/sqlite surfaces driver errors as plain *errors
// wrapping sqlite's textual diagnostics rather than a typed error
// code, so a substring match is the stable way to distinguish a
// collision from any other write failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
