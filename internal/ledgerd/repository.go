package ledgerd

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eysrewards/kiosk/internal/model"
)

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
}

// Repository handles dev-ledger data operations
type Repository struct{}

// NewRepository creates a new ledger repository
func NewRepository() *Repository {
	return &Repository{}
}

// EnsureSchema creates the dev ledger tables when missing. Redemption
// rows are written by whatever back-office process settles candidates;
// the dev ledger only aggregates them.
func EnsureSchema(db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS registrations (
			id          BIGSERIAL PRIMARY KEY,
			coupon_code TEXT NOT NULL,
			first_name  TEXT NOT NULL,
			last_name   TEXT NOT NULL,
			email       TEXT NOT NULL,
			phone       TEXT NOT NULL,
			location    TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_registrations_coupon_code ON registrations (coupon_code);

		CREATE TABLE IF NOT EXISTS redemptions (
			id          BIGSERIAL PRIMARY KEY,
			coupon_code TEXT NOT NULL,
			status      TEXT NOT NULL, -- 'completed', 'ineligible' or 'pending'
			credit      NUMERIC NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_redemptions_coupon_code ON redemptions (coupon_code);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// InsertRegistration stores one issuance event
func (r *Repository) InsertRegistration(db DBExecutor, ev model.LedgerEvent) error {
	query := `
		INSERT INTO registrations (coupon_code, first_name, last_name, email, phone, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := db.Exec(query,
		ev.CouponCode, ev.FirstName, ev.LastName, ev.Email, ev.Phone, ev.Location, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}

	return nil
}

// AggregateStats computes redemption counts and credit for one coupon code.
// A code with no redemption rows aggregates to all-zero stats.
func (r *Repository) AggregateStats(db DBExecutor, couponCode string) (model.CandidateStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'completed')  AS total_completed,
			COUNT(*) FILTER (WHERE status = 'ineligible') AS total_ineligible,
			COUNT(*) FILTER (WHERE status = 'pending')    AS total_pending,
			COALESCE(SUM(credit) FILTER (WHERE status = 'completed'), 0) AS total_credit
		FROM redemptions
		WHERE coupon_code = $1
	`

	var row struct {
		TotalCompleted  int64   `db:"total_completed"`
		TotalIneligible int64   `db:"total_ineligible"`
		TotalPending    int64   `db:"total_pending"`
		TotalCredit     float64 `db:"total_credit"`
	}
	if err := db.Get(&row, query, couponCode); err != nil {
		return model.CandidateStats{}, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	return model.CandidateStats{
		TotalCompleted:  row.TotalCompleted,
		TotalIneligible: row.TotalIneligible,
		TotalPending:    row.TotalPending,
		TotalCredit:     row.TotalCredit,
	}, nil
}
