package store

// The production schema is owned by an external schema-management process;
// these DDL constants exist for dev bootstrap (-init-schema) and for tests.
// Both dialects share the same shape: surrogate keys, a unique external
// equipment_id, and the usage-log natural key (equipment, date, hours, cost,
// revenue) that makes re-imports idempotent.

// SchemaPostgres is the PostgreSQL DDL.
const SchemaPostgres = `
CREATE TABLE IF NOT EXISTS equipment (
    id           BIGSERIAL PRIMARY KEY,
    equipment_id TEXT NOT NULL UNIQUE,
    name         TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS usage_logs (
    id           BIGSERIAL PRIMARY KEY,
    equipment_id BIGINT NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
    date         DATE NOT NULL,
    hours        NUMERIC(10,2) NOT NULL,
    cost         NUMERIC(14,2) NOT NULL,
    revenue      NUMERIC(14,2) NOT NULL,
    profit       NUMERIC(14,2) NOT NULL,
    UNIQUE (equipment_id, date, hours, cost, revenue)
);

CREATE INDEX IF NOT EXISTS idx_usage_logs_equipment ON usage_logs(equipment_id);
`

// SchemaSQLite is the SQLite DDL used by the in-memory test backend.
const SchemaSQLite = `
CREATE TABLE IF NOT EXISTS equipment (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    equipment_id TEXT NOT NULL UNIQUE,
    name         TEXT NOT NULL,
    created_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS usage_logs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    equipment_id INTEGER NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
    date         TEXT NOT NULL,
    hours        TEXT NOT NULL,
    cost         TEXT NOT NULL,
    revenue      TEXT NOT NULL,
    profit       TEXT NOT NULL,
    UNIQUE (equipment_id, date, hours, cost, revenue)
);

CREATE INDEX IF NOT EXISTS idx_usage_logs_equipment ON usage_logs(equipment_id);
`
