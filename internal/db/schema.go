package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS departments (
    id       INTEGER PRIMARY KEY,
    name     TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS vendors (
    id                   TEXT PRIMARY KEY,
    company_name         TEXT NOT NULL,
    contact_person       TEXT NOT NULL DEFAULT '',
    email                TEXT NOT NULL UNIQUE,
    cpcb_registration_no TEXT NOT NULL DEFAULT '',
    availability         TEXT NOT NULL DEFAULT '[]',
    created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    email         TEXT NOT NULL,
    name          TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'student' CHECK (role IN ('admin', 'coordinator', 'student', 'vendor')),
    department_id INTEGER,
    vendor_id     TEXT REFERENCES vendors(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    description    TEXT,
    category       TEXT NOT NULL,
    department_id  INTEGER NOT NULL,
    reported_by    TEXT NOT NULL,
    reported_at    DATETIME NOT NULL,
    disposed_at    DATETIME,
    disposition    TEXT CHECK (disposition IN ('Recyclable', 'Reusable', 'Hazardous')),
    status         TEXT NOT NULL DEFAULT 'Reported' CHECK (status IN (
                       'Reported', 'Awaiting Pickup', 'Scheduled', 'Collected',
                       'Recycled', 'Refurbished', 'Safely Disposed')),
    brand          TEXT,
    build_quality  INTEGER,
    user_lifespan  REAL,
    usage_pattern  TEXT,
    condition      INTEGER,
    original_price REAL,
    used_duration  REAL,
    current_price  REAL CHECK (current_price IS NULL OR current_price >= 0),
    image          BLOB,
    image_mime     TEXT,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pickups (
    id                   TEXT PRIMARY KEY,
    vendor_id            TEXT NOT NULL REFERENCES vendors(id),
    admin_id             INTEGER NOT NULL REFERENCES users(id),
    scheduled_date       DATETIME NOT NULL,
    status               TEXT NOT NULL DEFAULT 'Scheduled' CHECK (status IN (
                             'Scheduled', 'Vendor_Accepted', 'Vendor_Rejected', 'Completed')),
    vendor_response      TEXT CHECK (vendor_response IN ('Accepted', 'Rejected')),
    vendor_response_date DATETIME,
    vendor_response_note TEXT,
    created_at           DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pickup_items (
    pickup_id TEXT NOT NULL REFERENCES pickups(id),
    item_id   TEXT NOT NULL REFERENCES items(id),
    PRIMARY KEY (pickup_id, item_id)
);

CREATE TABLE IF NOT EXISTS item_events (
    id         INTEGER PRIMARY KEY,
    item_id    TEXT NOT NULL,
    type       TEXT NOT NULL,
    data       TEXT NOT NULL DEFAULT '{}',
    actor_id   INTEGER,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS campaigns (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    date        DATETIME NOT NULL,
    description TEXT
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
