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
			Name: "O1_known_status",
			SQL:  `SELECT id, status FROM requests WHERE status NOT IN ('pending','in_progress','completed')`,
		},
		{
			Name: "O2_completed_has_timestamp",
			SQL:  `SELECT id FROM requests WHERE status = 'completed' AND completed_at IS NULL`,
		},
		{
			Name: "O3_nonnegative_hours",
			SQL:  `SELECT id, work_hours FROM requests WHERE work_hours < 0`,
		},
		{
			Name: "O4_update_not_before_create",
			SQL:  `SELECT id FROM requests WHERE updated_at < created_at`,
		},
		{
			Name: "O5_completion_not_before_create",
			SQL:  `SELECT id FROM requests WHERE completed_at IS NOT NULL AND completed_at < created_at`,
		},
		{
			Name: "O6_submitter_is_sales",
			SQL: `SELECT r.id FROM requests r
                  JOIN users u ON r.sales_id = u.id
                  WHERE u.role <> 'sales'`,
		},
		{
			Name: "O7_assignee_is_researcher",
			SQL: `SELECT r.id FROM requests r
                  JOIN users u ON r.researcher_id = u.id
                  WHERE u.role <> 'researcher'`,
		},
		{
			Name: "O8_status_counts_partition",
			SQL: `SELECT * FROM (
                      SELECT COUNT(*) AS total,
                             COUNT(*) FILTER (WHERE status = 'pending') +
                             COUNT(*) FILTER (WHERE status = 'in_progress') +
                             COUNT(*) FILTER (WHERE status = 'completed') AS by_status
                      FROM requests) t
                  WHERE total <> by_status`,
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
