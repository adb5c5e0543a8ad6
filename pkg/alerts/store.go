/*
 * Copyright 2026 PulseWatch Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package alerts

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store implements the AlertStore interface with SQLite. The alerts table is
// created by pkg/db alongside the readings schema. Timestamps are bound in
// UTC: the driver stores them as text, and range comparisons on that text
// only order correctly when every row carries the same offset.
type Store struct {
	db *sql.DB
}

// NewStore creates a new alert store with the given database.
func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

const alertColumns = `
	id, device_id, severity, trigger_type, message, reason,
	snap_temperature, snap_vibration, snap_pressure,
	status, acknowledged_by, created_at, acknowledged_at, resolved_at`

// CreateAlert inserts a new alert and returns its ID.
func (s *Store) CreateAlert(alert *Alert) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO alerts
			(device_id, severity, trigger_type, message, reason,
			 snap_temperature, snap_vibration, snap_pressure, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.DeviceID, alert.Severity, alert.TriggerType, alert.Message, alert.Reason,
		alert.SensorSnapshot.Temperature, alert.SensorSnapshot.Vibration,
		alert.SensorSnapshot.Pressure, alert.Status, alert.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// GetAlert retrieves an alert by ID, or ErrAlertNotFound.
func (s *Store) GetAlert(id int64) (*Alert, error) {
	row := s.db.QueryRow(`SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)

	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlertNotFound
		}

		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return alert, nil
}

// ListAlerts retrieves alerts matching the filter, newest first.
func (s *Store) ListAlerts(filter Filter) ([]Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`

	var args []interface{}

	if filter.DeviceID != "" {
		query += ` AND device_id = ?`
		args = append(args, filter.DeviceID)
	}

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, *filter.Status)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []Alert

	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		out = append(out, *alert)
	}

	return out, rows.Err()
}

// FindRecentOpen returns the newest ACTIVE or ACKNOWLEDGED alert for the
// (deviceID, triggerType) pair created at or after since, or nil.
func (s *Store) FindRecentOpen(deviceID string, triggerType TriggerType, since time.Time) (*Alert, error) {
	row := s.db.QueryRow(`
		SELECT `+alertColumns+` FROM alerts
		WHERE device_id = ? AND trigger_type = ?
			AND status IN (?, ?)
			AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT 1`,
		deviceID, triggerType, StatusActive, StatusAcknowledged, since.UTC())

	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to find open alert: %w", err)
	}

	return alert, nil
}

// MarkAcknowledged records the acknowledgment on an ACTIVE alert.
func (s *Store) MarkAcknowledged(id int64, actor string, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE alerts SET status = ?, acknowledged_by = ?, acknowledged_at = ?
		WHERE id = ? AND status = ?`,
		StatusAcknowledged, actor, at.UTC(), id, StatusActive)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	return nil
}

// MarkResolved records the resolution on any non-RESOLVED alert.
func (s *Store) MarkResolved(id int64, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE alerts SET status = ?, resolved_at = ?
		WHERE id = ? AND status != ?`,
		StatusResolved, at.UTC(), id, StatusResolved)
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}

	return nil
}

// DeleteResolvedBefore removes RESOLVED alerts created before cutoff.
func (s *Store) DeleteResolvedBefore(cutoff time.Time) (int, error) {
	result, err := s.db.Exec(`
		DELETE FROM alerts WHERE status = ? AND created_at < ?`,
		StatusResolved, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete resolved alerts: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted alerts: %w", err)
	}

	return int(n), nil
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row scannable) (*Alert, error) {
	var alert Alert

	var reason sql.NullString

	var ackBy sql.NullString

	var ackAt, resolvedAt sql.NullTime

	err := row.Scan(
		&alert.ID, &alert.DeviceID, &alert.Severity, &alert.TriggerType,
		&alert.Message, &reason,
		&alert.SensorSnapshot.Temperature, &alert.SensorSnapshot.Vibration,
		&alert.SensorSnapshot.Pressure,
		&alert.Status, &ackBy, &alert.CreatedAt, &ackAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	alert.Reason = reason.String
	alert.AcknowledgedBy = ackBy.String

	if ackAt.Valid {
		alert.AcknowledgedAt = &ackAt.Time
	}

	if resolvedAt.Valid {
		alert.ResolvedAt = &resolvedAt.Time
	}

	return &alert, nil
}
