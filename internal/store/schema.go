package store

import "context"

// Schema is applied at startup. The portal owns this one table, so a
// migration tool would be overkill for now.
const Schema = `
CREATE TABLE IF NOT EXISTS loan_applications (
	id           UUID PRIMARY KEY,
	bank         TEXT NOT NULL,
	login        TEXT NOT NULL,
	full_name    TEXT NOT NULL,
	status       TEXT NOT NULL,
	message      TEXT NOT NULL DEFAULT '',
	agreement_id TEXT,
	created_at   TIMESTAMPTZ NOT NULL,
	decided_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_loan_applications_created_at
	ON loan_applications (created_at DESC);
`

func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, Schema)
	return err
}
