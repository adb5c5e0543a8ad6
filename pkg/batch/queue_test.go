package batch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsewatch/pulsewatch/pkg/models"
)

type fakeInserter struct {
	mu      sync.Mutex
	batches [][]models.SensorReading
	err     error
}

func (f *fakeInserter) BulkInsertReadings(readings []models.SensorReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.batches = append(f.batches, readings)

	return nil
}

func (f *fakeInserter) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.batches)
}

func (f *fakeInserter) lastBatchLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.batches) == 0 {
		return 0
	}

	return len(f.batches[len(f.batches)-1])
}

func reading(deviceID string) models.SensorReading {
	return models.SensorReading{
		DeviceID:    deviceID,
		Temperature: 70,
		Vibration:   20,
		Pressure:    35,
		Timestamp:   time.Now(),
	}
}

func TestQueueSizeTriggeredFlush(t *testing.T) {
	inserter := &fakeInserter{}
	q := NewQueue(Config{BatchSize: 3, Timeout: 30 * time.Second}, clock.NewMock(), inserter)

	for i := 0; i < 3; i++ {
		q.Enqueue(reading("pump-1"))
	}

	require.Equal(t, 1, inserter.batchCount())
	assert.Equal(t, 3, inserter.lastBatchLen())
	assert.Equal(t, 0, q.QueueLen("pump-1"))
}

func TestQueueTimeoutFlush(t *testing.T) {
	mock := clock.NewMock()
	inserter := &fakeInserter{}
	q := NewQueue(Config{BatchSize: 10, Timeout: 30 * time.Second}, mock, inserter)

	q.Enqueue(reading("pump-1"))
	q.Enqueue(reading("pump-1"))

	require.Equal(t, 0, inserter.batchCount())

	mock.Add(30 * time.Second)

	require.Equal(t, 1, inserter.batchCount())
	assert.Equal(t, 2, inserter.lastBatchLen())
	assert.Equal(t, 0, q.QueueLen("pump-1"))
}

func TestQueuePerDeviceBatches(t *testing.T) {
	inserter := &fakeInserter{}
	q := NewQueue(Config{BatchSize: 2, Timeout: 30 * time.Second}, clock.NewMock(), inserter)

	q.Enqueue(reading("pump-1"))
	q.Enqueue(reading("press-2"))
	q.Enqueue(reading("pump-1"))

	// Only pump-1 reached the batch size.
	require.Equal(t, 1, inserter.batchCount())
	assert.Equal(t, 1, q.QueueLen("press-2"))

	inserter.mu.Lock()
	for _, r := range inserter.batches[0] {
		assert.Equal(t, "pump-1", r.DeviceID)
	}
	inserter.mu.Unlock()
}

func TestQueueFlushAll(t *testing.T) {
	inserter := &fakeInserter{}
	q := NewQueue(Config{BatchSize: 10, Timeout: 30 * time.Second}, clock.NewMock(), inserter)

	q.Enqueue(reading("pump-1"))
	q.Enqueue(reading("press-2"))
	q.Enqueue(reading("press-2"))

	q.FlushAll()

	assert.Equal(t, 2, inserter.batchCount())
	assert.Equal(t, 0, q.QueueLen("pump-1"))
	assert.Equal(t, 0, q.QueueLen("press-2"))
}

func TestQueueInsertFailureDropsBatch(t *testing.T) {
	mock := clock.NewMock()
	inserter := &fakeInserter{err: errors.New("disk full")}
	q := NewQueue(Config{BatchSize: 2, Timeout: 30 * time.Second}, mock, inserter)

	q.Enqueue(reading("pump-1"))
	q.Enqueue(reading("pump-1"))

	// The failed batch is dropped, not retried: the queue is empty and the
	// next enqueue starts fresh.
	assert.Equal(t, 0, q.QueueLen("pump-1"))

	inserter.mu.Lock()
	inserter.err = nil
	inserter.mu.Unlock()

	q.Enqueue(reading("pump-1"))
	q.Enqueue(reading("pump-1"))

	require.Equal(t, 1, inserter.batchCount())
	assert.Equal(t, 2, inserter.lastBatchLen())
}

func TestQueueTimerAfterSizeFlush(t *testing.T) {
	mock := clock.NewMock()
	inserter := &fakeInserter{}
	q := NewQueue(Config{BatchSize: 2, Timeout: 30 * time.Second}, mock, inserter)

	q.Enqueue(reading("pump-1"))
	q.Enqueue(reading("pump-1"))
	require.Equal(t, 1, inserter.batchCount())

	// A single reading after the size flush goes out on the rearmed timer.
	q.Enqueue(reading("pump-1"))
	mock.Add(30 * time.Second)

	require.Equal(t, 2, inserter.batchCount())
	assert.Equal(t, 1, inserter.lastBatchLen())
}

func TestQueueDefaults(t *testing.T) {
	q := NewQueue(Config{}, clock.NewMock(), &fakeInserter{})

	assert.Equal(t, DefaultBatchSize, q.cfg.BatchSize)
	assert.Equal(t, DefaultTimeout, q.cfg.Timeout)
}
