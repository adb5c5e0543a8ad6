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

// Package batch accumulates readings per device for bulk durable writes.
package batch

import (
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/pulsewatch/pulsewatch/pkg/models"
)

const (
	// DefaultBatchSize is the queue depth that triggers an immediate flush.
	DefaultBatchSize = 10

	// DefaultTimeout bounds how long a partial batch waits before flushing.
	DefaultTimeout = 30 * time.Second
)

// BulkInserter performs the durable bulk write.
type BulkInserter interface {
	BulkInsertReadings(readings []models.SensorReading) error
}

// Config controls batch size and the flush timeout.
type Config struct {
	BatchSize int           `json:"batch_size"`
	Timeout   time.Duration `json:"timeout"`
}

type deviceQueue struct {
	mu       sync.Mutex
	readings []models.SensorReading
	timer    *clock.Timer
	gen      uint64
}

// Queue batches readings per device and writes them through a BulkInserter.
// Insert failures are logged and the batch is dropped: at-most-once
// durability, trading lost batches for ingestion throughput under storage
// outages.
type Queue struct {
	cfg      Config
	clock    clock.Clock
	inserter BulkInserter

	mu      sync.Mutex
	devices map[string]*deviceQueue
}

// NewQueue creates a Queue. Zero config fields fall back to the defaults.
func NewQueue(cfg Config, clk clock.Clock, inserter BulkInserter) *Queue {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if clk == nil {
		clk = clock.New()
	}

	return &Queue{
		cfg:      cfg,
		clock:    clk,
		inserter: inserter,
		devices:  make(map[string]*deviceQueue),
	}
}

// Enqueue appends a reading to the device's batch, arming the flush timer on
// the empty-to-pending transition and flushing synchronously when the batch
// fills.
func (q *Queue) Enqueue(reading models.SensorReading) {
	dq := q.queue(reading.DeviceID)

	dq.mu.Lock()
	defer dq.mu.Unlock()

	if len(dq.readings) == 0 && dq.timer == nil {
		q.armLocked(reading.DeviceID, dq)
	}

	dq.readings = append(dq.readings, reading)

	if len(dq.readings) >= q.cfg.BatchSize {
		q.flushLocked(reading.DeviceID, dq, true)
	}
}

// QueueLen reports the number of readings awaiting durable write for a
// device.
func (q *Queue) QueueLen(deviceID string) int {
	q.mu.Lock()
	dq, ok := q.devices[deviceID]
	q.mu.Unlock()

	if !ok {
		return 0
	}

	dq.mu.Lock()
	defer dq.mu.Unlock()

	return len(dq.readings)
}

// FlushAll synchronously drains every device's pending batch. Invoked once
// at shutdown before upstream connections close; errors are logged and
// shutdown proceeds regardless.
func (q *Queue) FlushAll() {
	q.mu.Lock()
	queues := make(map[string]*deviceQueue, len(q.devices))
	for id, dq := range q.devices {
		queues[id] = dq
	}
	q.mu.Unlock()

	for id, dq := range queues {
		dq.mu.Lock()
		if len(dq.readings) > 0 {
			q.flushLocked(id, dq, false)
		} else if dq.timer != nil {
			dq.timer.Stop()
			dq.timer = nil
			dq.gen++
		}
		dq.mu.Unlock()
	}
}

func (q *Queue) queue(deviceID string) *deviceQueue {
	q.mu.Lock()
	defer q.mu.Unlock()

	dq, ok := q.devices[deviceID]
	if !ok {
		dq = &deviceQueue{}
		q.devices[deviceID] = dq
	}

	return dq
}

func (q *Queue) armLocked(deviceID string, dq *deviceQueue) {
	dq.gen++
	gen := dq.gen
	dq.timer = q.clock.AfterFunc(q.cfg.Timeout, func() {
		q.timerFired(deviceID, gen)
	})
}

func (q *Queue) timerFired(deviceID string, gen uint64) {
	q.mu.Lock()
	dq, ok := q.devices[deviceID]
	q.mu.Unlock()

	if !ok {
		return
	}

	dq.mu.Lock()
	defer dq.mu.Unlock()

	if gen != dq.gen {
		return
	}

	if len(dq.readings) == 0 {
		dq.timer = nil
		return
	}

	q.flushLocked(deviceID, dq, false)
}

// flushLocked writes the pending batch. The queue is cleared before the
// insert so a persistence failure can never wedge the device in a pending
// state; the failed batch is dropped by policy.
func (q *Queue) flushLocked(deviceID string, dq *deviceQueue, sizeTriggered bool) {
	pending := dq.readings
	dq.readings = nil

	if dq.timer != nil {
		dq.timer.Stop()
		dq.timer = nil
	}
	dq.gen++

	if sizeTriggered {
		q.armLocked(deviceID, dq)
	}

	if err := q.inserter.BulkInsertReadings(pending); err != nil {
		log.Printf("Failed to persist batch of %d readings for device %s: %v",
			len(pending), deviceID, err)
		return
	}

	log.Printf("Persisted batch of %d readings for device %s", len(pending), deviceID)
}
