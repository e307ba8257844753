package actors

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Submitter keeps creating new requests from the same sales user.
func Submitter(ctx context.Context, pool *pgxpool.Pool, salesID, researcherID int64, stop <-chan struct{}) error {
	types := []string{"行业研究", "公司研究", "数据整理", "其他(临时)"}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `INSERT INTO requests (title, description, request_type, research_scope, org_name, org_type, sales_id, researcher_id, is_confidential)
                                   VALUES ($1,'压测需求',$2,'消费',$3,'公募',$4,$5,$6)`,
			fmt.Sprintf("需求-%d", rand.Int63()), types[rand.Intn(len(types))],
			fmt.Sprintf("机构-%d", rand.Intn(5)), salesID, researcherID, rand.Intn(3) == 0)
		if err != nil {
			return fmt.Errorf("submitter insert: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Updater flips a single contested request between the three statuses the
// way researchers do, stamping completion metadata on the completed hop.
func Updater(ctx context.Context, pool *pgxpool.Pool, requestID int64, stop <-chan struct{}) error {
	statuses := []string{"pending", "in_progress", "completed"}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		status := statuses[rand.Intn(len(statuses))]
		var note *string
		var hours float64
		if status == "completed" {
			n := "压测完成说明"
			note = &n
			hours = float64(rand.Intn(20)) / 2
		}
		_, err := pool.Exec(ctx, `UPDATE requests
                                   SET status = $2,
                                       result_note = $3,
                                       work_hours = $4,
                                       updated_at = now(),
                                       completed_at = CASE WHEN $2 = 'completed' THEN now() ELSE completed_at END
                                   WHERE id = $1`, requestID, status, note, hours)
		if err != nil {
			return fmt.Errorf("updater: %w", err)
		}
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}

// Reassigner bounces the contested request between two researchers,
// racing the status updaters.
func Reassigner(ctx context.Context, pool *pgxpool.Pool, requestID int64, researchers []int64, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		target := researchers[rand.Intn(len(researchers))]
		_, err := pool.Exec(ctx, `UPDATE requests SET researcher_id = $2, updated_at = now() WHERE id = $1`, requestID, target)
		if err != nil {
			return fmt.Errorf("reassigner: %w", err)
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

// ConfidentialToggler flips the confidential flag on the contested request.
func ConfidentialToggler(ctx context.Context, pool *pgxpool.Pool, requestID int64, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `UPDATE requests SET is_confidential = NOT is_confidential, updated_at = now() WHERE id = $1`, requestID)
		if err != nil {
			return fmt.Errorf("confidential toggler: %w", err)
		}
		time.Sleep(time.Duration(50+rand.Intn(80)) * time.Millisecond)
	}
}

// Reader runs the visibility-filtered list and the overview rollup the
// dashboards use, concurrently with the writers.
func Reader(ctx context.Context, pool *pgxpool.Pool, viewerID int64, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		rows, err := pool.Query(ctx, `SELECT id FROM requests WHERE is_confidential = FALSE OR sales_id = $1 OR researcher_id = $1 ORDER BY created_at DESC LIMIT 50`, viewerID)
		if err != nil {
			return fmt.Errorf("reader list: %w", err)
		}
		for rows.Next() {
		}
		rows.Close()

		var total, completed int
		err = pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) FROM requests`).Scan(&total, &completed)
		if err != nil {
			return fmt.Errorf("reader overview: %w", err)
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}
