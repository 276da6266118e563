package dbx

import (
	"strings"

	"github.com/google/uuid"
)

// UUIDArray renders ids as a Postgres array literal for "= ANY($1::uuid[])".
// Values that are not UUIDs cannot match a uuid column and are dropped.
func UUIDArray(ids []string) string {
	var b strings.Builder
	b.WriteByte('{')
	n := 0
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		if n > 0 {
			b.WriteByte(',')
		}
		b.WriteString(u.String())
		n++
	}
	b.WriteByte('}')
	return b.String()
}
