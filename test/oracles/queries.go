package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_contact_matches_owner_email",
			SQL: `SELECT b.id FROM books b
                  JOIN users u ON u.id = b.author_id
                  WHERE b.contact <> u.email`,
		},
		{
			Name: "O2_only_owners_author_books",
			SQL: `SELECT b.id FROM books b
                  JOIN users u ON u.id = b.author_id
                  WHERE u.role <> 'Owner'`,
		},
		{
			Name: "O3_no_hijacked_titles",
			SQL:  `SELECT id FROM books WHERE title = 'HIJACKED'`,
		},
		{
			Name: "O4_role_domain",
			SQL:  `SELECT id FROM users WHERE role NOT IN ('Owner','Seeker')`,
		},
		{
			Name: "O5_unique_emails",
			SQL: `SELECT email, COUNT(*) FROM users
                  GROUP BY email HAVING COUNT(*) > 1`,
		},
		{
			Name: "O6_no_orphan_books",
			SQL: `SELECT b.id FROM books b
                  LEFT JOIN users u ON u.id = b.author_id
                  WHERE u.id IS NULL`,
		},
		{
			Name: "O7_timestamps_ordered",
			SQL:  `SELECT id FROM books WHERE updated_at < created_at`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
