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

// Package alerts implements threshold evaluation, alert deduplication, and
// the alert lifecycle (ACTIVE → ACKNOWLEDGED → RESOLVED).
package alerts

import (
	"fmt"
	"log"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/pulsewatch/pulsewatch/pkg/models"
)

const (
	// DefaultDedupWindow is how long a repeated trigger for the same
	// (deviceID, triggerType) is suppressed rather than duplicated.
	DefaultDedupWindow = 60 * time.Second

	// DefaultRetention is how long RESOLVED alerts are kept before cleanup.
	DefaultRetention = 24 * time.Hour

	// TopicAlerts is the global alert event topic. Device-scoped events go
	// to TopicAlerts + ":" + deviceID as well.
	TopicAlerts = "alerts"
)

// Engine creates and manages alerts. All creation paths route through a
// single deduplicating function.
type Engine struct {
	store       AlertStore
	publisher   Publisher
	clock       clock.Clock
	dedupWindow time.Duration
}

// NewEngine creates an alert engine. publisher may be nil; clk defaults to
// the wall clock; dedupWindow <= 0 falls back to DefaultDedupWindow.
func NewEngine(store AlertStore, publisher Publisher, clk clock.Clock, dedupWindow time.Duration) *Engine {
	if clk == nil {
		clk = clock.New()
	}

	if dedupWindow <= 0 {
		dedupWindow = DefaultDedupWindow
	}

	return &Engine{
		store:       store,
		publisher:   publisher,
		clock:       clk,
		dedupWindow: dedupWindow,
	}
}

// RaiseFromInference evaluates a freshly computed health state and raises a
// RULE_BASED alert when the formula predicts failure: risk HIGH or status
// CRITICAL. Returns (nil, nil) when no alert condition holds.
func (e *Engine) RaiseFromInference(state models.DeviceHealthState, snapshot SensorSnapshot) (*Alert, error) {
	if state.FailureRisk != models.RiskHigh && state.Status != models.StatusCritical {
		return nil, nil
	}

	severity := SeverityWarning
	if state.Status == models.StatusCritical {
		severity = SeverityCritical
	}

	message := fmt.Sprintf("Failure prediction for device %s: health score %d, risk %s. %s",
		state.DeviceID, state.HealthScore, state.FailureRisk, state.Reason)

	return e.create(&Alert{
		DeviceID:       state.DeviceID,
		Severity:       severity,
		TriggerType:    TriggerRuleBased,
		Message:        message,
		Reason:         state.Reason,
		SensorSnapshot: snapshot,
	})
}

// EvaluateThresholds checks the latest reading and current health state
// against the device's configured thresholds and raises one alert per
// breached dimension. The reading's vibration is on the normalized scale;
// thresholds are raw.
func (e *Engine) EvaluateThresholds(
	reading models.SensorReading,
	state *models.DeviceHealthState,
	thresholds models.AlertThresholds) ([]*Alert, error) {
	snapshot := SensorSnapshot{
		Temperature: reading.Temperature,
		Vibration:   reading.Vibration,
		Pressure:    reading.Pressure,
	}

	var raised []*Alert

	type breach struct {
		triggered bool
		trigger   TriggerType
		severity  Severity
		message   string
	}

	breaches := []breach{
		{
			triggered: reading.Temperature > thresholds.Temperature,
			trigger:   TriggerTemperature,
			severity:  SeverityWarning,
			message: fmt.Sprintf("Temperature %.1f exceeds threshold %.1f on device %s",
				reading.Temperature, thresholds.Temperature, reading.DeviceID),
		},
		{
			triggered: reading.Vibration > thresholds.Vibration*models.VibrationScale,
			trigger:   TriggerVibration,
			severity:  SeverityWarning,
			message: fmt.Sprintf("Vibration %.1f exceeds threshold %.1f on device %s",
				reading.Vibration, thresholds.Vibration*models.VibrationScale, reading.DeviceID),
		},
		{
			triggered: reading.Pressure > thresholds.Pressure,
			trigger:   TriggerPressure,
			severity:  SeverityWarning,
			message: fmt.Sprintf("Pressure %.1f exceeds threshold %.1f on device %s",
				reading.Pressure, thresholds.Pressure, reading.DeviceID),
		},
	}

	if state != nil {
		breaches = append(breaches,
			breach{
				triggered: state.HealthScore < thresholds.HealthScoreMin,
				trigger:   TriggerHealthScore,
				severity:  SeverityWarning,
				message: fmt.Sprintf("Health score %d below minimum %d on device %s",
					state.HealthScore, thresholds.HealthScoreMin, state.DeviceID),
			},
			breach{
				triggered: state.FailureRisk == models.RiskHigh,
				trigger:   TriggerFailureRisk,
				severity:  SeverityCritical,
				message: fmt.Sprintf("Failure risk is HIGH on device %s: %s",
					state.DeviceID, state.Reason),
			})
	}

	for _, b := range breaches {
		if !b.triggered {
			continue
		}

		alert, err := e.create(&Alert{
			DeviceID:       reading.DeviceID,
			Severity:       b.severity,
			TriggerType:    b.trigger,
			Message:        b.message,
			SensorSnapshot: snapshot,
		})
		if err != nil {
			return raised, err
		}

		raised = append(raised, alert)
	}

	return raised, nil
}

// create is the single deduplicating insertion path. When an ACTIVE or
// ACKNOWLEDGED alert for the same (deviceID, triggerType) exists within the
// dedup window, the new alert is suppressed and the existing one returned
// unchanged.
func (e *Engine) create(alert *Alert) (*Alert, error) {
	now := e.clock.Now()

	existing, err := e.store.FindRecentOpen(alert.DeviceID, alert.TriggerType, now.Add(-e.dedupWindow))
	if err != nil {
		return nil, err
	}

	if existing != nil {
		log.Printf("Suppressing duplicate %s alert for device %s (existing alert %d)",
			alert.TriggerType, alert.DeviceID, existing.ID)
		return existing, nil
	}

	alert.Status = StatusActive
	alert.CreatedAt = now

	id, err := e.store.CreateAlert(alert)
	if err != nil {
		return nil, err
	}

	alert.ID = id

	log.Printf("Alert %d created: device=%s trigger=%s severity=%s",
		alert.ID, alert.DeviceID, alert.TriggerType, alert.Severity)

	e.publish(EventCreated, alert)

	return alert, nil
}

// Acknowledge transitions an ACTIVE alert to ACKNOWLEDGED, recording the
// actor and timestamp. Re-acknowledging is allowed and is a content no-op.
func (e *Engine) Acknowledge(id int64, actor string) (*Alert, error) {
	alert, err := e.store.GetAlert(id)
	if err != nil {
		return nil, err
	}

	if alert.Status != StatusActive {
		return alert, nil
	}

	if err := e.store.MarkAcknowledged(id, actor, e.clock.Now()); err != nil {
		return nil, err
	}

	alert, err = e.store.GetAlert(id)
	if err != nil {
		return nil, err
	}

	e.publish(EventAcknowledged, alert)

	return alert, nil
}

// Resolve transitions any non-RESOLVED alert to RESOLVED. Resolving an
// already RESOLVED alert is a no-op.
func (e *Engine) Resolve(id int64) (*Alert, error) {
	alert, err := e.store.GetAlert(id)
	if err != nil {
		return nil, err
	}

	if alert.Status == StatusResolved {
		return alert, nil
	}

	if err := e.store.MarkResolved(id, e.clock.Now()); err != nil {
		return nil, err
	}

	alert, err = e.store.GetAlert(id)
	if err != nil {
		return nil, err
	}

	e.publish(EventResolved, alert)

	return alert, nil
}

// Get retrieves an alert by ID.
func (e *Engine) Get(id int64) (*Alert, error) {
	return e.store.GetAlert(id)
}

// List retrieves alerts matching the filter.
func (e *Engine) List(filter Filter) ([]Alert, error) {
	return e.store.ListAlerts(filter)
}

// Cleanup deletes RESOLVED alerts created before now minus olderThan and
// returns the count deleted.
func (e *Engine) Cleanup(olderThan time.Duration) (int, error) {
	return e.store.DeleteResolvedBefore(e.clock.Now().Add(-olderThan))
}

func (e *Engine) publish(eventType string, alert *Alert) {
	if e.publisher == nil {
		return
	}

	event := Event{Type: eventType, Alert: *alert}
	e.publisher.Publish(TopicAlerts, event)
	e.publisher.Publish(TopicAlerts+":"+alert.DeviceID, event)
}
