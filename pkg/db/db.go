// Package db pkg/db/db.go provides SQLite persistence for PulseWatch:
// the device registry, the durable readings store, and the alert tables.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/pulsewatch/pulsewatch/pkg/models"
)

var (
	errFailedOpenDB      = errors.New("failed to open database")
	errFailedToEnableWAL = errors.New("failed to enable WAL mode")
	errFailedToInit      = errors.New("failed to initialize schema")
	errFailedToBeginTx   = errors.New("failed to begin transaction")
	errFailedToInsert    = errors.New("failed to insert")
	errFailedToQuery     = errors.New("failed to query")
	errFailedToScan      = errors.New("failed to scan")
	errFailedToClean     = errors.New("failed to clean")
)

const createTablesSQL = `
	-- Registered devices with their alert thresholds
	CREATE TABLE IF NOT EXISTS devices (
		device_id TEXT PRIMARY KEY,
		first_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		temperature_threshold REAL NOT NULL,
		vibration_threshold REAL NOT NULL,
		pressure_threshold REAL NOT NULL,
		health_score_min INTEGER NOT NULL
	);

	-- Durable sensor readings
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id TEXT NOT NULL,
		temperature REAL NOT NULL,
		vibration REAL NOT NULL,
		pressure REAL NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		FOREIGN KEY (device_id) REFERENCES devices(device_id) ON DELETE CASCADE
	);

	-- Alerts with their full lifecycle
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id TEXT NOT NULL,
		severity TEXT NOT NULL,
		trigger_type TEXT NOT NULL,
		message TEXT NOT NULL,
		reason TEXT,
		snap_temperature REAL NOT NULL DEFAULT 0,
		snap_vibration REAL NOT NULL DEFAULT 0,
		snap_pressure REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		acknowledged_by TEXT,
		created_at TIMESTAMP NOT NULL,
		acknowledged_at TIMESTAMP,
		resolved_at TIMESTAMP,
		FOREIGN KEY (device_id) REFERENCES devices(device_id) ON DELETE CASCADE
	);

	-- Indexes for better query performance
	CREATE INDEX IF NOT EXISTS idx_readings_device_time
		ON readings(device_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_alerts_device_trigger
		ON alerts(device_id, trigger_type, status);
	CREATE INDEX IF NOT EXISTS idx_alerts_status_created
		ON alerts(status, created_at);

	PRAGMA journal_mode=WAL;
	PRAGMA foreign_keys=ON;
	`

// DB represents the database connection and operations.
type DB struct {
	*sql.DB
}

// New creates a new database connection and initializes the schema.
func New(dbPath string) (Service, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedOpenDB, err)
	}

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %w", errFailedToEnableWAL, err)
	}

	if _, err := sqlDB.Exec(createTablesSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %w", errFailedToInit, err)
	}

	return &DB{sqlDB}, nil
}

// Conn exposes the underlying handle for stores that share the database,
// such as the alert store.
func (db *DB) Conn() *sql.DB {
	return db.DB
}

// EnsureDevice registers a device on first sight with default alert
// thresholds. Repeated calls only advance last_seen: an idempotent upsert.
func (db *DB) EnsureDevice(deviceID string) (*models.DeviceRecord, error) {
	defaults := models.DefaultThresholds()
	now := time.Now()

	_, err := db.Exec(`
		INSERT INTO devices
			(device_id, first_seen, last_seen,
			 temperature_threshold, vibration_threshold, pressure_threshold, health_score_min)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET last_seen = excluded.last_seen`,
		deviceID, now, now,
		defaults.Temperature, defaults.Vibration, defaults.Pressure, defaults.HealthScoreMin)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToInsert, err)
	}

	return db.GetDevice(deviceID)
}

// GetDevice returns a device record, or ErrDeviceNotFound.
func (db *DB) GetDevice(deviceID string) (*models.DeviceRecord, error) {
	var rec models.DeviceRecord

	err := db.QueryRow(`
		SELECT device_id, first_seen, last_seen,
			temperature_threshold, vibration_threshold, pressure_threshold, health_score_min
		FROM devices WHERE device_id = ?`, deviceID).Scan(
		&rec.DeviceID, &rec.FirstSeen, &rec.LastSeen,
		&rec.Thresholds.Temperature, &rec.Thresholds.Vibration,
		&rec.Thresholds.Pressure, &rec.Thresholds.HealthScoreMin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}

		return nil, fmt.Errorf("%w: %w", errFailedToScan, err)
	}

	return &rec, nil
}

// ListDevices returns all registered devices.
func (db *DB) ListDevices() ([]models.DeviceRecord, error) {
	rows, err := db.Query(`
		SELECT device_id, first_seen, last_seen,
			temperature_threshold, vibration_threshold, pressure_threshold, health_score_min
		FROM devices ORDER BY device_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToQuery, err)
	}
	defer rows.Close()

	var devices []models.DeviceRecord

	for rows.Next() {
		var rec models.DeviceRecord
		if err := rows.Scan(
			&rec.DeviceID, &rec.FirstSeen, &rec.LastSeen,
			&rec.Thresholds.Temperature, &rec.Thresholds.Vibration,
			&rec.Thresholds.Pressure, &rec.Thresholds.HealthScoreMin); err != nil {
			return nil, fmt.Errorf("%w: %w", errFailedToScan, err)
		}

		devices = append(devices, rec)
	}

	return devices, rows.Err()
}

// BulkInsertReadings writes a batch of readings in a single transaction.
func (db *DB) BulkInsertReadings(readings []models.SensorReading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToBeginTx, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO readings (device_id, temperature, vibration, pressure, timestamp)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %w", errFailedToInsert, err)
	}
	defer stmt.Close()

	for _, r := range readings {
		if _, err := stmt.Exec(r.DeviceID, r.Temperature, r.Vibration, r.Pressure, r.Timestamp); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: %w", errFailedToInsert, err)
		}
	}

	return tx.Commit()
}

// QueryWindow returns a device's readings since the given instant, in
// timestamp order.
func (db *DB) QueryWindow(deviceID string, since time.Time) ([]models.SensorReading, error) {
	rows, err := db.Query(`
		SELECT device_id, temperature, vibration, pressure, timestamp
		FROM readings
		WHERE device_id = ? AND timestamp >= ?
		ORDER BY timestamp`, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToQuery, err)
	}
	defer rows.Close()

	var readings []models.SensorReading

	for rows.Next() {
		var r models.SensorReading
		if err := rows.Scan(&r.DeviceID, &r.Temperature, &r.Vibration, &r.Pressure, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: %w", errFailedToScan, err)
		}

		readings = append(readings, r)
	}

	return readings, rows.Err()
}

// CleanOldReadings deletes readings older than the retention period.
func (db *DB) CleanOldReadings(retention time.Duration) error {
	cutoff := time.Now().Add(-retention)

	if _, err := db.Exec(`DELETE FROM readings WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("%w: %w", errFailedToClean, err)
	}

	return nil
}
