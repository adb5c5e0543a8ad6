package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsewatch/pulsewatch/pkg/models"
)

func newTestDB(t *testing.T) Service {
	t.Helper()

	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, database.Close())
	})

	return database
}

func TestNewFailsOnUnusablePath(t *testing.T) {
	// A directory is not a valid database file; initialization fails and no
	// handle is returned.
	database, err := New(t.TempDir())

	require.Error(t, err)
	assert.ErrorIs(t, err, errFailedToEnableWAL)
	assert.Nil(t, database)
}

func TestEnsureDeviceCreatesWithDefaults(t *testing.T) {
	database := newTestDB(t)

	rec, err := database.EnsureDevice("pump-1")
	require.NoError(t, err)

	assert.Equal(t, "pump-1", rec.DeviceID)
	assert.Equal(t, models.DefaultThresholds(), rec.Thresholds)
	assert.False(t, rec.FirstSeen.IsZero())
}

func TestEnsureDeviceIsIdempotent(t *testing.T) {
	database := newTestDB(t)

	first, err := database.EnsureDevice("pump-1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	second, err := database.EnsureDevice("pump-1")
	require.NoError(t, err)

	assert.Equal(t, first.FirstSeen.Unix(), second.FirstSeen.Unix())
	assert.False(t, second.LastSeen.Before(first.LastSeen))

	devices, err := database.ListDevices()
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestGetDeviceNotFound(t *testing.T) {
	database := newTestDB(t)

	_, err := database.GetDevice("ghost")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestListDevicesOrdered(t *testing.T) {
	database := newTestDB(t)

	for _, id := range []string{"press-2", "pump-1", "fan-3"} {
		_, err := database.EnsureDevice(id)
		require.NoError(t, err)
	}

	devices, err := database.ListDevices()
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, "fan-3", devices[0].DeviceID)
	assert.Equal(t, "press-2", devices[1].DeviceID)
	assert.Equal(t, "pump-1", devices[2].DeviceID)
}

func TestBulkInsertAndQueryWindow(t *testing.T) {
	database := newTestDB(t)

	_, err := database.EnsureDevice("pump-1")
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	readings := make([]models.SensorReading, 5)
	for i := range readings {
		readings[i] = models.SensorReading{
			DeviceID:    "pump-1",
			Temperature: 70 + float64(i),
			Vibration:   20,
			Pressure:    35,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		}
	}

	require.NoError(t, database.BulkInsertReadings(readings))

	// Everything since the start.
	all, err := database.QueryWindow("pump-1", base)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, 70.0, all[0].Temperature)

	// A narrower window excludes the first readings; the boundary is
	// inclusive.
	tail, err := database.QueryWindow("pump-1", base.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, 73.0, tail[0].Temperature)

	// Other devices see nothing.
	other, err := database.QueryWindow("press-2", base)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBulkInsertEmptyBatch(t *testing.T) {
	database := newTestDB(t)

	assert.NoError(t, database.BulkInsertReadings(nil))
}

func TestCleanOldReadings(t *testing.T) {
	database := newTestDB(t)

	_, err := database.EnsureDevice("pump-1")
	require.NoError(t, err)

	now := time.Now()
	readings := []models.SensorReading{
		{DeviceID: "pump-1", Temperature: 70, Vibration: 20, Pressure: 35, Timestamp: now.Add(-48 * time.Hour)},
		{DeviceID: "pump-1", Temperature: 71, Vibration: 20, Pressure: 35, Timestamp: now.Add(-1 * time.Hour)},
	}
	require.NoError(t, database.BulkInsertReadings(readings))

	require.NoError(t, database.CleanOldReadings(24*time.Hour))

	remaining, err := database.QueryWindow("pump-1", now.Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, 71.0, remaining[0].Temperature)
}
