package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsewatch/pulsewatch/pkg/models"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{name: "empty", values: nil, expected: 0},
		{name: "single", values: []float64{42}, expected: 42},
		{name: "several", values: []float64{1, 2, 3, 4}, expected: 2.5},
		{name: "negative", values: []float64{-2, 2}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Mean(tt.values), 1e-9)
		})
	}
}

func TestMaxMin(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5}

	assert.Equal(t, 5.0, Max(values))
	assert.Equal(t, 1.0, Min(values))
	assert.Equal(t, 0.0, Max(nil))
	assert.Equal(t, 0.0, Min(nil))
}

func TestStdDev(t *testing.T) {
	// Population std dev of {2,4,4,4,5,5,7,9} is exactly 2.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.0, StdDev(values), 1e-9)

	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, StdDev([]float64{5, 5, 5}))
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{name: "too short", values: []float64{1, 2}, expected: 0},
		{name: "exactly three", values: []float64{1, 2, 3}, expected: 0},
		{name: "rising", values: []float64{1, 1, 1, 5, 5, 5}, expected: 4},
		{name: "falling", values: []float64{10, 10, 10, 4, 4, 4}, expected: -6},
		{name: "flat", values: []float64{2, 2, 2, 2, 2, 2}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Trend(tt.values), 1e-9)
		})
	}
}

func TestComputeEmptyWindow(t *testing.T) {
	_, err := Compute(nil)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestCompute(t *testing.T) {
	now := time.Now()

	readings := []models.SensorReading{
		{DeviceID: "pump-1", Temperature: 70, Vibration: 20, Pressure: 35, Timestamp: now},
		{DeviceID: "pump-1", Temperature: 72, Vibration: 22, Pressure: 36, Timestamp: now.Add(time.Second)},
		{DeviceID: "pump-1", Temperature: 74, Vibration: 24, Pressure: 34, Timestamp: now.Add(2 * time.Second)},
		{DeviceID: "pump-1", Temperature: 76, Vibration: 30, Pressure: 37, Timestamp: now.Add(3 * time.Second)},
	}

	agg, err := Compute(readings)
	require.NoError(t, err)

	assert.InDelta(t, 73.0, agg.MeanT, 1e-9)
	assert.InDelta(t, 24.0, agg.MeanV, 1e-9)
	assert.InDelta(t, 35.5, agg.MeanP, 1e-9)
	assert.InDelta(t, 30.0, agg.MaxV, 1e-9)
	assert.InDelta(t, 37.0, agg.MaxP, 1e-9)

	// Trend over 4 samples: avg(last 3) - avg(first 3).
	assert.InDelta(t, 2.0, agg.TrendT, 1e-9)
	assert.InDelta(t, (22.0+24+30)/3-(20.0+22+24)/3, agg.TrendV, 1e-9)
}
