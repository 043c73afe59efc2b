package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements are applied in order by EnsureSchema. Every statement is
// idempotent so the migrate command can run on each deploy.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS identifier_sequences (
	scope TEXT PRIMARY KEY,
	value INTEGER NOT NULL CHECK (value > 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	case_number TEXT NOT NULL UNIQUE,
	lab_number TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	analyst_status TEXT NOT NULL,
	assigned_investigator_id TEXT,
	supervisor_id TEXT,
	analyst_id TEXT,
	exhibit_officer_id TEXT,
	opened_date TIMESTAMPTZ NOT NULL,
	closed_date TIMESTAMPTZ,
	case_notes TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status)`,
	`CREATE INDEX IF NOT EXISTS idx_cases_analyst ON cases(analyst_id)`,
	`CREATE TABLE IF NOT EXISTS exhibits (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id),
	exhibit_number TEXT NOT NULL UNIQUE,
	exhibit_type TEXT NOT NULL,
	status TEXT NOT NULL,
	device_name TEXT NOT NULL DEFAULT '',
	brand TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	serial_number TEXT NOT NULL DEFAULT '',
	imei TEXT NOT NULL DEFAULT '',
	mac_address TEXT NOT NULL DEFAULT '',
	storage_capacity TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	assigned_analyst_id TEXT,
	current_location TEXT NOT NULL DEFAULT '',
	received_by TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL,
	chain_of_custody JSONB NOT NULL CHECK (jsonb_typeof(chain_of_custody) = 'array' AND jsonb_array_length(chain_of_custody) >= 1),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_exhibits_case ON exhibits(case_id)`,
	`CREATE OR REPLACE FUNCTION exhibits_custody_append_only() RETURNS trigger AS $$
BEGIN
	IF COALESCE((
		SELECT jsonb_agg(e ORDER BY i)
		FROM jsonb_array_elements(NEW.chain_of_custody) WITH ORDINALITY AS t(e, i)
		WHERE i <= jsonb_array_length(OLD.chain_of_custody)
	), '[]'::jsonb) IS DISTINCT FROM OLD.chain_of_custody THEN
		RAISE EXCEPTION 'chain_of_custody is append-only (exhibit %)', OLD.id;
	END IF;
	IF NEW.exhibit_number IS DISTINCT FROM OLD.exhibit_number THEN
		RAISE EXCEPTION 'exhibit_number is immutable (exhibit %)', OLD.id;
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS trg_exhibits_custody_append_only ON exhibits`,
	`CREATE TRIGGER trg_exhibits_custody_append_only
	BEFORE UPDATE ON exhibits
	FOR EACH ROW EXECUTE FUNCTION exhibits_custody_append_only()`,
	`CREATE TABLE IF NOT EXISTS approvals (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id),
	approval_type TEXT NOT NULL,
	approval_status TEXT NOT NULL,
	submitted_by TEXT NOT NULL,
	approved_by TEXT,
	approved_at TIMESTAMPTZ,
	comments TEXT NOT NULL DEFAULT '',
	review_comments TEXT,
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_approvals_one_pending
	ON approvals(case_id, approval_type) WHERE approval_status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_approvals_status ON approvals(approval_status)`,
	`CREATE TABLE IF NOT EXISTS activity_log (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	subject_type TEXT NOT NULL,
	activity_type TEXT NOT NULL,
	description TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_subject ON activity_log(subject_id, created_at)`,
}

// EnsureSchema creates tables, indexes and the custody append-only trigger.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema (statement %d): %w", i+1, err)
		}
	}
	return nil
}
