package storage

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// violatedColumn extracts "table.column" from a UNIQUE constraint message,
// e.g. "constraint failed: UNIQUE constraint failed: users.email (2067)".
func violatedColumn(err error) string {
	msg := err.Error()
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	col := msg[i+len(marker):]
	if j := strings.IndexAny(col, " ,"); j >= 0 {
		col = col[:j]
	}
	return col
}

// classifyCreate maps an insert error onto a CreateResult. ok is false when
// err is not a uniqueness violation and must be surfaced as a failure.
func classifyCreate(err error) (res CreateResult, ok bool) {
	if !isUniqueViolation(err) {
		return 0, false
	}
	switch violatedColumn(err) {
	case "users.api_token":
		return TokenTaken, true
	default:
		return EmailTaken, true
	}
}
