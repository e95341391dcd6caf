package repository

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS bank;

CREATE TABLE IF NOT EXISTS bank.users (
    id              BIGSERIAL PRIMARY KEY,
    username        TEXT NOT NULL,
    email           TEXT NOT NULL UNIQUE,
    password_hash   TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bank.accounts (
    id              BIGSERIAL PRIMARY KEY,
    user_id         BIGINT NOT NULL REFERENCES bank.users(id),
    balance         NUMERIC(20, 2) NOT NULL DEFAULT 0,
    currency        TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bank.transactions (
    id              BIGSERIAL PRIMARY KEY,
    account_id      BIGINT NOT NULL REFERENCES bank.accounts(id),
    amount          NUMERIC(20, 2) NOT NULL,
    kind            TEXT NOT NULL,
    status          TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    occurred_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS bank.recurring_rules (
    id                  UUID PRIMARY KEY,
    user_id             BIGINT NOT NULL REFERENCES bank.users(id),
    kind                TEXT NOT NULL,
    amount              NUMERIC(20, 2) NOT NULL,
    currency            TEXT NOT NULL,
    category_key        TEXT NOT NULL DEFAULT '',
    description         TEXT NOT NULL DEFAULT '',
    recurrence          TEXT NOT NULL,
    start_date          DATE NOT NULL,
    end_date            DATE,
    exception_dates     DATE[] NOT NULL DEFAULT '{}',
    is_active           BOOLEAN NOT NULL DEFAULT TRUE,
    last_generated_at   TIMESTAMPTZ,
    next_execution_at   TIMESTAMPTZ,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bank.forecast_settings (
    user_id                 BIGINT PRIMARY KEY REFERENCES bank.users(id),
    manual_daily_burn_rate  NUMERIC(20, 2),
    safety_threshold        NUMERIC(20, 2)
);

CREATE TABLE IF NOT EXISTS bank.forecast_snapshots (
    user_id         BIGINT NOT NULL REFERENCES bank.users(id),
    generated_at    TIMESTAMPTZ NOT NULL,
    horizon_days    INTEGER NOT NULL,
    report          JSONB NOT NULL,
    PRIMARY KEY (user_id, generated_at)
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_time ON bank.transactions(account_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_rules_user_active ON bank.recurring_rules(user_id, is_active);
`

// Migrate creates the tables the service needs if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
