package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id       INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS subcategories (
	category_id INTEGER NOT NULL REFERENCES categories (id),
	id          INTEGER NOT NULL,
	name        TEXT NOT NULL,
	position    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (category_id, id)
);
CREATE TABLE IF NOT EXISTS properties (
	id                INTEGER PRIMARY KEY,
	category_id       INTEGER NOT NULL,
	subcategory_id    INTEGER NOT NULL,
	name              TEXT NOT NULL,
	has_child         BOOLEAN NOT NULL DEFAULT FALSE,
	child_property_id INTEGER,
	position          INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (category_id, subcategory_id) REFERENCES subcategories (category_id, id)
);
CREATE TABLE IF NOT EXISTS options (
	property_id INTEGER NOT NULL REFERENCES properties (id),
	id          INTEGER NOT NULL,
	name        TEXT NOT NULL,
	position    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (property_id, id)
);
CREATE TABLE IF NOT EXISTS submissions (
	id           UUID PRIMARY KEY,
	session_id   TEXT NOT NULL,
	selection    JSONB NOT NULL,
	data         JSONB NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL
);`

// EnsureSchema creates the catalog and submission tables when missing.
func EnsureSchema(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, schema)
	return err
}
