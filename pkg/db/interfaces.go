// Package db pkg/db/interfaces.go
package db

import (
	"database/sql"
	"time"

	"github.com/pulsewatch/pulsewatch/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/pulsewatch/pulsewatch/pkg/db Service

// Service represents all database operations.
type Service interface {
	// Core database operations.

	Close() error
	Conn() *sql.DB

	// Device registry operations.

	EnsureDevice(deviceID string) (*models.DeviceRecord, error)
	GetDevice(deviceID string) (*models.DeviceRecord, error)
	ListDevices() ([]models.DeviceRecord, error)

	// Readings operations.

	BulkInsertReadings(readings []models.SensorReading) error
	QueryWindow(deviceID string, since time.Time) ([]models.SensorReading, error)

	// Maintenance operations.

	CleanOldReadings(retention time.Duration) error
}
