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

// Package ingest provides the single entry point that validates readings and
// fans them into the timeline buffer and the batch persistence queue.
package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pulsewatch/pulsewatch/pkg/alerts"
	"github.com/pulsewatch/pulsewatch/pkg/batch"
	"github.com/pulsewatch/pulsewatch/pkg/db"
	"github.com/pulsewatch/pulsewatch/pkg/models"
	"github.com/pulsewatch/pulsewatch/pkg/timeline"
)

// TopicSensors is the live sensor update topic prefix. Device-scoped events
// go to TopicSensors + ":" + deviceID.
const TopicSensors = "sensors"

// DefaultMonitorInterval controls how often the periodic threshold
// evaluation runs.
const DefaultMonitorInterval = 30 * time.Second

// Request is a raw ingestion request before validation. Pointer fields
// distinguish absent values from zero readings.
type Request struct {
	DeviceID    string     `json:"device_id"`
	Temperature *float64   `json:"temperature"`
	Vibration   *float64   `json:"vibration"`
	Pressure    *float64   `json:"pressure"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// Publisher delivers live sensor updates to the fan-out transport.
type Publisher interface {
	Publish(topic string, data interface{})
}

// Coordinator validates readings, normalizes the vibration scale, ensures
// the device is registered, publishes live updates, and feeds the timeline
// buffer and batch queue. It is safe for concurrent use.
type Coordinator struct {
	store     db.Service
	tl        *timeline.Manager
	queue     *batch.Queue
	publisher Publisher
	engine    *alerts.Engine

	mu   sync.RWMutex
	last map[string]models.SensorReading
}

// NewCoordinator wires the ingestion entry point. publisher and engine may
// be nil.
func NewCoordinator(
	store db.Service,
	tl *timeline.Manager,
	queue *batch.Queue,
	publisher Publisher,
	engine *alerts.Engine) *Coordinator {
	return &Coordinator{
		store:     store,
		tl:        tl,
		queue:     queue,
		publisher: publisher,
		engine:    engine,
		last:      make(map[string]models.SensorReading),
	}
}

// Ingest validates and processes one reading. Validation failures return
// ErrValidation; the caller decides whether to retry or drop. Downstream
// side effects (timeline, batch) are independent: neither blocks the other.
func (c *Coordinator) Ingest(req Request) (models.SensorReading, error) {
	reading, err := validate(req)
	if err != nil {
		return models.SensorReading{}, err
	}

	// Register the device on first sight. A registry failure is logged but
	// does not block live ingestion.
	if _, err := c.store.EnsureDevice(reading.DeviceID); err != nil {
		log.Printf("Failed to ensure device %s exists: %v", reading.DeviceID, err)
	}

	// Normalize vibration to the 0-100 scale. This is the only place the
	// conversion happens.
	reading.Vibration *= models.VibrationScale

	c.mu.Lock()
	c.last[reading.DeviceID] = reading
	c.mu.Unlock()

	// Live update goes out immediately, independent of batching and
	// inference, so observers see raw values with minimal latency.
	if c.publisher != nil {
		c.publisher.Publish(TopicSensors, reading)
		c.publisher.Publish(TopicSensors+":"+reading.DeviceID, reading)
	}

	c.tl.Append(reading)
	c.queue.Enqueue(reading)

	return reading, nil
}

// GetHealthState returns the most recent inference result for a device.
func (c *Coordinator) GetHealthState(deviceID string) (models.DeviceHealthState, bool) {
	return c.tl.GetHealthState(deviceID)
}

// LastReading returns the most recent normalized reading seen for a device.
func (c *Coordinator) LastReading(deviceID string) (models.SensorReading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reading, ok := c.last[deviceID]

	return reading, ok
}

// FlushAll synchronously drains all pending batches. Invoked at shutdown.
func (c *Coordinator) FlushAll() {
	c.queue.FlushAll()
}

// Monitor periodically evaluates every device's latest reading and health
// state against its configured thresholds. Deduplication in the alert
// engine keeps repeated breaches from storming.
func (c *Coordinator) Monitor(ctx context.Context, interval time.Duration) {
	if c.engine == nil {
		return
	}

	if interval <= 0 {
		interval = DefaultMonitorInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evaluateThresholds()
		}
	}
}

func (c *Coordinator) evaluateThresholds() {
	c.mu.RLock()
	latest := make(map[string]models.SensorReading, len(c.last))
	for id, r := range c.last {
		latest[id] = r
	}
	c.mu.RUnlock()

	for deviceID, reading := range latest {
		device, err := c.store.GetDevice(deviceID)
		if err != nil {
			log.Printf("Skipping threshold evaluation for device %s: %v", deviceID, err)
			continue
		}

		var state *models.DeviceHealthState
		if s, ok := c.tl.GetHealthState(deviceID); ok {
			state = &s
		}

		if _, err := c.engine.EvaluateThresholds(reading, state, device.Thresholds); err != nil {
			log.Printf("Threshold evaluation failed for device %s: %v", deviceID, err)
		}
	}
}

// validate checks a raw request and converts it to a SensorReading with the
// vibration still on the raw scale.
func validate(req Request) (models.SensorReading, error) {
	if req.DeviceID == "" {
		return models.SensorReading{}, fmt.Errorf("%w: device_id is required", ErrValidation)
	}

	if req.Temperature == nil {
		return models.SensorReading{}, fmt.Errorf("%w: temperature is required", ErrValidation)
	}

	if req.Vibration == nil {
		return models.SensorReading{}, fmt.Errorf("%w: vibration is required", ErrValidation)
	}

	if req.Pressure == nil {
		return models.SensorReading{}, fmt.Errorf("%w: pressure is required", ErrValidation)
	}

	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	return models.SensorReading{
		DeviceID:    req.DeviceID,
		Temperature: *req.Temperature,
		Vibration:   *req.Vibration,
		Pressure:    *req.Pressure,
		Timestamp:   ts,
	}, nil
}
