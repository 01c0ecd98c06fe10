package sqlite_test

import (
	"testing"

	"github.com/weftlabs/weft/sqlite"
)

// MustOpenDB returns a new, open in-memory DB. Fatal on error.
func MustOpenDB(tb testing.TB) *sqlite.DB {
	tb.Helper()
	db := sqlite.NewDB(":memory:")
	if err := db.Open(); err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := db.Close(); err != nil {
			tb.Fatal(err)
		}
	})
	return db
}
