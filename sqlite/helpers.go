package sqlite

import (
	"strings"
	"time"

	"github.com/weftlabs/weft"
)

// parseCreatedAt decodes a stored RFC3339 created_at column value.
func parseCreatedAt(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, weft.Errorf(weft.EINTERNAL, "invalid created_at %q: %v", value, err)
	}
	return t, nil
}

// appendLimitOffset adds LIMIT and OFFSET clauses for positive values.
func appendLimitOffset(query *strings.Builder, args *[]any, limit, offset int) {
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}
