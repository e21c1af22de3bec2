package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL database connection
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// Create tables
	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createPostgresTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		email TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'operator',
		api_key TEXT UNIQUE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_users_tenant ON users(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_users_api_key ON users(api_key);

	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT 'tactical',
		device_type TEXT NOT NULL DEFAULT '',
		registered_at TIMESTAMP NOT NULL DEFAULT NOW(),
		last_seen_at TIMESTAMP NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_devices_tenant ON devices(tenant_id);

	CREATE TABLE IF NOT EXISTS geofences (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_geofences_tenant ON geofences(tenant_id);

	CREATE TABLE IF NOT EXISTS pois (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_pois_tenant ON pois(tenant_id);

	CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		title TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_groups_tenant ON groups(tenant_id);

	CREATE TABLE IF NOT EXISTS device_sync_records (
		device_id TEXT PRIMARY KEY REFERENCES devices(id) ON DELETE CASCADE,
		watermark BIGINT NOT NULL DEFAULT 0,
		ring_sent TIMESTAMP,
		sync_received TIMESTAMP,
		ack_received TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	-- Assignment edge tables, one per relation kind. Edge metadata
	-- (assigned_at) survives reapplied targets because untouched edges
	-- are never rewritten.
	CREATE TABLE IF NOT EXISTS device_geofences (
		device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		geofence_id TEXT NOT NULL REFERENCES geofences(id) ON DELETE CASCADE,
		assigned_at TIMESTAMP NOT NULL DEFAULT NOW(),
		PRIMARY KEY (device_id, geofence_id)
	);

	CREATE TABLE IF NOT EXISTS device_pois (
		device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		poi_id TEXT NOT NULL REFERENCES pois(id) ON DELETE CASCADE,
		assigned_at TIMESTAMP NOT NULL DEFAULT NOW(),
		PRIMARY KEY (device_id, poi_id)
	);

	CREATE TABLE IF NOT EXISTS device_groups (
		device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		assigned_at TIMESTAMP NOT NULL DEFAULT NOW(),
		PRIMARY KEY (device_id, group_id)
	);

	CREATE TABLE IF NOT EXISTS user_device_access (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, device_id)
	);

	CREATE INDEX IF NOT EXISTS idx_user_device_access_device ON user_device_access(device_id);
	`

	_, err := db.Exec(schema)
	return err
}
