package mysql

import "fmt"

// The two collections share one shape, so statements are built per table.
type statements struct {
	upsert  string
	lookup  string
	listAll string
}

func statementsFor(table string) statements {
	return statements{
		// Only the document and update stamp change on conflict; the first
		// id and created_at are kept.
		upsert: fmt.Sprintf(`
INSERT INTO %s
  (id, external_id, doc, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  doc        = VALUES(doc),
  updated_at = VALUES(updated_at)
`, table),
		lookup: fmt.Sprintf(`SELECT id, created_at FROM %s WHERE external_id = ?`, table),
		listAll: fmt.Sprintf(`
SELECT id, doc, created_at, updated_at
FROM %s
ORDER BY seq ASC
`, table),
	}
}

var (
	companySQL = statementsFor("companies")
	blogSQL    = statementsFor("blog_posts")
)
