package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupServiceRunsOnStart(t *testing.T) {
	engine, mock, _ := newTestEngine(t)

	alert, err := engine.RaiseFromInference(criticalState("pump-1"), SensorSnapshot{})
	require.NoError(t, err)

	_, err = engine.Resolve(alert.ID)
	require.NoError(t, err)

	mock.Add(25 * time.Hour)

	svc := NewCleanupService(engine, CleanupConfig{Interval: time.Hour, Retention: 24 * time.Hour})
	svc.Start()
	defer svc.Stop()

	// The first cleanup pass runs immediately, before the first tick.
	require.Eventually(t, func() bool {
		list, listErr := engine.List(Filter{})
		return listErr == nil && len(list) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCleanupServiceDefaults(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	svc := NewCleanupService(engine, CleanupConfig{})

	assert.Equal(t, time.Hour, svc.config.Interval)
	assert.Equal(t, DefaultRetention, svc.config.Retention)
}
