package postgres

import (
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/eshikshan/config"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("host", cfg.Host).Info("Connected to PostgreSQL")
	return db, nil
}

// Postings and instructors are owned by the admin side of the platform; the
// tables are created here so a fresh database is usable end to end.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS instructors (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// admin_jobs and jobs share one id space so a job id is unambiguous
	`CREATE SEQUENCE IF NOT EXISTS job_posting_id_seq`,

	`CREATE TABLE IF NOT EXISTS admin_jobs (
		id BIGINT PRIMARY KEY DEFAULT nextval('job_posting_id_seq'),
		title VARCHAR(255) NOT NULL,
		company VARCHAR(255) NOT NULL DEFAULT '',
		posted_by BIGINT REFERENCES instructors(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id BIGINT PRIMARY KEY DEFAULT nextval('job_posting_id_seq'),
		title VARCHAR(255) NOT NULL,
		company VARCHAR(255) NOT NULL DEFAULT '',
		posted_by BIGINT REFERENCES instructors(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS hackathons (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		starts_at TIMESTAMPTZ,
		created_by BIGINT REFERENCES instructors(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS submissions (
		id BIGSERIAL PRIMARY KEY,
		kind VARCHAR(20) NOT NULL CHECK (kind IN ('application', 'registration')),
		posting_id BIGINT NOT NULL,
		posting_kind VARCHAR(20) NOT NULL,
		posting_title VARCHAR(255) NOT NULL DEFAULT '',
		submitter_id BIGINT NOT NULL,
		submitter_email VARCHAR(255) NOT NULL,
		submitter_name VARCHAR(255) NOT NULL DEFAULT '',
		owner_id BIGINT,
		owner_email VARCHAR(255),
		owner_name VARCHAR(255),
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		status_revision BIGINT NOT NULL DEFAULT 1,
		details JSONB NOT NULL DEFAULT '{}'::jsonb,
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT submissions_kind_submitter_posting_key UNIQUE (kind, submitter_id, posting_id),
		CONSTRAINT submissions_status_check CHECK (
			(kind = 'application' AND status IN ('pending', 'reviewed', 'shortlisted', 'interview', 'rejected', 'accepted', 'further_round'))
			OR (kind = 'registration' AND status IN ('pending', 'approved', 'rejected', 'waitlisted', 'shortlisted', 'further_round'))
		)
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		recipient_email VARCHAR(255) NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type VARCHAR(40) NOT NULL DEFAULT 'general',
		related_id BIGINT NOT NULL DEFAULT 0,
		idempotency_key CHAR(64) NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		read_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT notifications_idempotency_key_key UNIQUE (idempotency_key)
	)`,

	// titles embed a posting title of up to 255 chars plus a prefix
	`ALTER TABLE notifications ALTER COLUMN title TYPE TEXT`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_submissions_owner ON submissions(kind, owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_submitter ON submissions(kind, submitter_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_email, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(recipient_email) WHERE NOT is_read`,
}

func RunMigrations(db *sql.DB) error {
	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", i, err)
		}
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}
