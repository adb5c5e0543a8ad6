// Package models pkg/models/sensor.go
package models

import "time"

// VibrationScale converts raw vibration units to the normalized 0-100 scale.
// Normalization happens exactly once, in the ingestion coordinator.
const VibrationScale = 100.0

// SensorReading is a single telemetry sample from one device. Immutable once
// created; Vibration is on the normalized scale after ingestion.
type SensorReading struct {
	DeviceID    string    `json:"device_id"`
	Temperature float64   `json:"temperature"`
	Vibration   float64   `json:"vibration"`
	Pressure    float64   `json:"pressure"`
	Timestamp   time.Time `json:"timestamp"`
}

// FailureRisk classifies how likely a device is to fail soon.
type FailureRisk string

const (
	RiskLow    FailureRisk = "LOW"
	RiskMedium FailureRisk = "MEDIUM"
	RiskHigh   FailureRisk = "HIGH"
)

// DeviceStatus is the operational condition derived from the health score.
type DeviceStatus string

const (
	StatusStable    DeviceStatus = "STABLE"
	StatusDegrading DeviceStatus = "DEGRADING"
	StatusCritical  DeviceStatus = "CRITICAL"
)

// ComponentScores holds the per-sensor contributions to the health score,
// each in [0,100].
type ComponentScores struct {
	Temperature float64 `json:"temperature"`
	Vibration   float64 `json:"vibration"`
	Pressure    float64 `json:"pressure"`
}

// DeviceHealthState is the result of one inference cycle. It is overwritten
// atomically on each cycle, never merged.
type DeviceHealthState struct {
	DeviceID        string          `json:"device_id"`
	HealthScore     int             `json:"health_score"`
	FailureRisk     FailureRisk     `json:"failure_risk"`
	Status          DeviceStatus    `json:"status"`
	ComponentScores ComponentScores `json:"component_scores"`
	Reason          string          `json:"reason"`
	ComputedAt      time.Time       `json:"computed_at"`
}

// AlertThresholds are the per-device limits evaluated by the alert engine.
// Vibration is on the raw (pre-normalization) scale.
type AlertThresholds struct {
	Temperature    float64 `json:"temperature"`
	Vibration      float64 `json:"vibration"`
	Pressure       float64 `json:"pressure"`
	HealthScoreMin int     `json:"health_score_min"`
}

// DefaultThresholds returns the thresholds assigned when a device record is
// created on first sight.
func DefaultThresholds() AlertThresholds {
	return AlertThresholds{
		Temperature:    85,
		Vibration:      0.8,
		Pressure:       40,
		HealthScoreMin: 60,
	}
}

// DeviceRecord is a registered device with its alert thresholds.
type DeviceRecord struct {
	DeviceID   string          `json:"device_id"`
	FirstSeen  time.Time       `json:"first_seen"`
	LastSeen   time.Time       `json:"last_seen"`
	Thresholds AlertThresholds `json:"thresholds"`
}
