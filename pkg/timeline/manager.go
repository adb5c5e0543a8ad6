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

// Package timeline manages the per-device sliding timeline buffers that
// trigger health inference.
package timeline

import (
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/pulsewatch/pulsewatch/pkg/health"
	"github.com/pulsewatch/pulsewatch/pkg/models"
)

const (
	// DefaultWindowSize is the number of readings that triggers inference.
	DefaultWindowSize = 10

	// DefaultTimeout is how long a partial window waits before inference
	// runs anyway.
	DefaultTimeout = 180 * time.Second

	// TopicHealth is the health state event topic. Device-scoped events go
	// to TopicHealth + ":" + deviceID.
	TopicHealth = "health"
)

// StateFunc receives each freshly computed DeviceHealthState along with the
// reading window it was computed from, in insertion order.
type StateFunc func(state models.DeviceHealthState, window []models.SensorReading)

// Config controls window size and the inference timeout.
type Config struct {
	WindowSize int           `json:"window_size"`
	Timeout    time.Duration `json:"timeout"`
}

// deviceBuffer holds one device's pending readings and its single
// outstanding inference timer. All mutation happens under mu, which makes
// "at most one timer per device" and "no concurrent inference cycles per
// device" structural.
type deviceBuffer struct {
	mu       sync.Mutex
	readings []models.SensorReading
	timer    *clock.Timer
	gen      uint64 // invalidates callbacks from cancelled timers
}

// Manager owns the per-device timeline buffers and the health state records
// produced by each inference cycle.
type Manager struct {
	cfg     Config
	clock   clock.Clock
	onState StateFunc

	mu      sync.Mutex
	devices map[string]*deviceBuffer

	stateMu sync.RWMutex
	states  map[string]models.DeviceHealthState
}

// NewManager creates a Manager. onState may be nil. Zero config fields fall
// back to the defaults.
func NewManager(cfg Config, clk clock.Clock, onState StateFunc) *Manager {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if clk == nil {
		clk = clock.New()
	}

	return &Manager{
		cfg:     cfg,
		clock:   clk,
		onState: onState,
		devices: make(map[string]*deviceBuffer),
		states:  make(map[string]models.DeviceHealthState),
	}
}

// Append adds a reading to the device's timeline buffer, arming the
// inference timer on the empty-to-accumulating transition and triggering
// inference synchronously when the window fills.
func (m *Manager) Append(reading models.SensorReading) {
	buf := m.buffer(reading.DeviceID)

	buf.mu.Lock()
	defer buf.mu.Unlock()

	if len(buf.readings) == 0 && buf.timer == nil {
		m.armLocked(reading.DeviceID, buf)
	}

	buf.readings = append(buf.readings, reading)

	if len(buf.readings) >= m.cfg.WindowSize {
		m.drainLocked(reading.DeviceID, buf, true)
	}
}

// GetHealthState returns the most recent inference result for a device.
func (m *Manager) GetHealthState(deviceID string) (models.DeviceHealthState, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	state, ok := m.states[deviceID]

	return state, ok
}

// BufferLen reports the current number of buffered readings for a device.
func (m *Manager) BufferLen(deviceID string) int {
	m.mu.Lock()
	buf, ok := m.devices[deviceID]
	m.mu.Unlock()

	if !ok {
		return 0
	}

	buf.mu.Lock()
	defer buf.mu.Unlock()

	return len(buf.readings)
}

// Stop cancels every outstanding inference timer. Buffered readings are
// abandoned; the next process start begins from empty buffers.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, buf := range m.devices {
		buf.mu.Lock()
		if buf.timer != nil {
			buf.timer.Stop()
			buf.timer = nil
		}
		buf.gen++
		buf.mu.Unlock()
	}
}

func (m *Manager) buffer(deviceID string) *deviceBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.devices[deviceID]
	if !ok {
		buf = &deviceBuffer{}
		m.devices[deviceID] = buf
	}

	return buf
}

// armLocked schedules the one-shot inference timer. Callers hold buf.mu.
func (m *Manager) armLocked(deviceID string, buf *deviceBuffer) {
	buf.gen++
	gen := buf.gen
	buf.timer = m.clock.AfterFunc(m.cfg.Timeout, func() {
		m.timerFired(deviceID, gen)
	})
}

// timerFired handles the inference timeout. A fire from a cancelled or
// superseded timer is a no-op, as is a fire against an empty buffer.
func (m *Manager) timerFired(deviceID string, gen uint64) {
	m.mu.Lock()
	buf, ok := m.devices[deviceID]
	m.mu.Unlock()

	if !ok {
		return
	}

	buf.mu.Lock()
	defer buf.mu.Unlock()

	if gen != buf.gen {
		return
	}

	if len(buf.readings) == 0 {
		buf.timer = nil
		return
	}

	m.drainLocked(deviceID, buf, false)
}

// drainLocked runs one inference cycle. The buffer is cleared and the timer
// resolved before scoring, so a failure in a downstream consumer can never
// leave the device stuck in an accumulating state. Only the size-triggered
// path rearms the timer; a timeout drain returns the device to empty and
// waits for the next arrival.
func (m *Manager) drainLocked(deviceID string, buf *deviceBuffer, sizeTriggered bool) {
	window := buf.readings
	buf.readings = nil

	if buf.timer != nil {
		buf.timer.Stop()
		buf.timer = nil
	}
	buf.gen++

	if sizeTriggered {
		m.armLocked(deviceID, buf)
	}

	state := health.ComputeHealthAt(deviceID, window, m.clock.Now())

	m.stateMu.Lock()
	m.states[deviceID] = state
	m.stateMu.Unlock()

	log.Printf("Inference for device %s: score=%d risk=%s status=%s (window=%d)",
		deviceID, state.HealthScore, state.FailureRisk, state.Status, len(window))

	if m.onState != nil {
		m.onState(state, window)
	}
}
