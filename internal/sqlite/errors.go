package sqlite

import "strings"

// modernc.org/sqlite surfaces constraint failures only through the error
// text, with SQLite's upstream wording ("<KIND> constraint failed: ...").
func isConstraintViolation(err error, kind string) bool {
	return err != nil && strings.Contains(err.Error(), kind+" constraint failed")
}
