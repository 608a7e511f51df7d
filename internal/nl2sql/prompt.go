package nl2sql

import (
	"fmt"
	"strings"

	"github.com/clipquery/clipquery/internal/schema"
)

func buildSystemPrompt(descriptor schema.Descriptor) string {
	tables := strings.Join(descriptor.TableNames(), " and ")
	return fmt.Sprintf(`You are a PostgreSQL analyst. Convert the user's question about video statistics into exactly one PostgreSQL SELECT statement.

RULES:
1. Output ONLY the SQL statement. No prose, no explanation, no markdown, no second statement.
2. Use ONLY the tables %s. Never reference any other table.
3. When both tables are needed, join them only as %s.
4. The statement must return a single numeric value: one COUNT, SUM or AVG aggregate in the select list, no GROUP BY, no row sets.
5. Use column names exactly as written in the schema. Never invent columns.
6. For time ranges use inclusive bounds on both ends: column >= start AND column <= end.
7. Timestamps are stored in UTC without time zone. Use PostgreSQL date functions.
8. Growth over a period is SUM of the delta_* columns of %s; totals are the *_count columns of %s.
9. The question may be written in any language, for example Russian.

DATABASE SCHEMA:
%s`,
		tables,
		descriptor.Relation.String(),
		schema.SnapshotsTable,
		schema.VideosTable,
		descriptor.DDL(),
	)
}

func buildUserPrompt(req Request) string {
	return "USER QUESTION:\n" + strings.TrimSpace(req.NaturalLanguage)
}
