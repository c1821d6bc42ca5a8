package db

import "database/sql"

// Migrate bootstraps the relational schema. Statements are idempotent so the
// server can run them on every start.
func Migrate(pg *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			full_name VARCHAR(150) NOT NULL,
			email VARCHAR(150) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role VARCHAR(20) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS activity_references (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			student_id UUID NOT NULL REFERENCES users(id),
			mongo_activity_id VARCHAR(24) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			reviewer_id UUID REFERENCES users(id),
			verification_notes TEXT NOT NULL DEFAULT '',
			awarded_points INT NOT NULL DEFAULT 0,
			payload_digest VARCHAR(64) NOT NULL,
			reference_token TEXT UNIQUE,
			signature BYTEA,
			issued_at TIMESTAMPTZ,
			version BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_references_student
			ON activity_references (student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_references_status
			ON activity_references (status)`,
		`CREATE TABLE IF NOT EXISTS portfolios (
			student_id UUID PRIMARY KEY REFERENCES users(id),
			visibility VARCHAR(10) NOT NULL DEFAULT 'private',
			total_activities INT NOT NULL DEFAULT 0,
			verified_count INT NOT NULL DEFAULT 0,
			pending_count INT NOT NULL DEFAULT 0,
			rejected_count INT NOT NULL DEFAULT 0,
			total_points INT NOT NULL DEFAULT 0,
			source_checksum VARCHAR(64) NOT NULL DEFAULT '',
			last_recomputed_at TIMESTAMPTZ
		)`,
	}

	for _, stmt := range stmts {
		if _, err := pg.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
