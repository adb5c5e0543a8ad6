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

import "time"

// Severity represents the severity of an alert.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// TriggerType identifies the condition that raised an alert. Deduplication
// is keyed on (deviceID, triggerType).
type TriggerType string

const (
	TriggerHealthScore TriggerType = "HEALTH_SCORE"
	TriggerFailureRisk TriggerType = "FAILURE_RISK"
	TriggerTemperature TriggerType = "TEMPERATURE"
	TriggerVibration   TriggerType = "VIBRATION"
	TriggerPressure    TriggerType = "PRESSURE"
	TriggerRuleBased   TriggerType = "RULE_BASED"
)

// Status represents the current lifecycle stage of an alert. Transitions are
// one-directional: ACTIVE → ACKNOWLEDGED → RESOLVED, or ACTIVE → RESOLVED.
// An alert is never re-opened.
type Status string

const (
	StatusActive       Status = "ACTIVE"
	StatusAcknowledged Status = "ACKNOWLEDGED"
	StatusResolved     Status = "RESOLVED"
)

// SensorSnapshot captures the raw sensor values at the moment an alert was
// raised.
type SensorSnapshot struct {
	Temperature float64 `json:"temperature"`
	Vibration   float64 `json:"vibration"`
	Pressure    float64 `json:"pressure"`
}

// Alert is a single alert with its full lifecycle record. Created by the
// alert engine only.
type Alert struct {
	ID             int64          `json:"id"`
	DeviceID       string         `json:"device_id"`
	Severity       Severity       `json:"severity"`
	TriggerType    TriggerType    `json:"trigger_type"`
	Message        string         `json:"message"`
	Reason         string         `json:"reason,omitempty"`
	SensorSnapshot SensorSnapshot `json:"sensor_snapshot"`
	Status         Status         `json:"status"`
	AcknowledgedBy string         `json:"acknowledged_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
}

// Filter selects alerts in list queries.
type Filter struct {
	DeviceID string  `json:"device_id,omitempty"`
	Status   *Status `json:"status,omitempty"`
	Limit    int     `json:"limit,omitempty"`
}

// Event is the envelope published to the fan-out on alert lifecycle changes.
type Event struct {
	Type  string `json:"type"`
	Alert Alert  `json:"alert"`
}

const (
	EventCreated      = "alert_created"
	EventAcknowledged = "alert_acknowledged"
	EventResolved     = "alert_resolved"
)
