// Package stats pkg/stats/stats.go provides the aggregate statistics used by
// the health scoring engine.
package stats

import (
	"errors"
	"math"

	"github.com/pulsewatch/pulsewatch/pkg/models"
)

// ErrInsufficientData is returned when an aggregate is requested over an
// empty sequence. Callers substitute the neutral component score 100.
var ErrInsufficientData = errors.New("insufficient data")

// trendSpan is the number of samples averaged at each end of a window when
// computing the trend delta.
const trendSpan = 3

// Aggregates holds the per-dimension statistics for one reading window.
type Aggregates struct {
	MeanT float64
	MeanV float64
	MeanP float64

	MaxV float64
	MaxP float64

	StdDevT float64
	StdDevV float64
	StdDevP float64

	TrendT float64
	TrendV float64
	TrendP float64
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// Max returns the largest value in values, or 0 for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}

	return m
}

// Min returns the smallest value in values, or 0 for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}

	return m
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := Mean(values)

	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)))
}

// Trend returns avg(last 3 values) - avg(first 3 values), a cheap linear
// degradation signal. Windows shorter than 3 samples have no trend.
func Trend(values []float64) float64 {
	if len(values) < trendSpan {
		return 0
	}

	return Mean(values[len(values)-trendSpan:]) - Mean(values[:trendSpan])
}

// Compute derives the full aggregate set from an ordered reading window.
// The only failure mode is an empty input.
func Compute(readings []models.SensorReading) (Aggregates, error) {
	if len(readings) == 0 {
		return Aggregates{}, ErrInsufficientData
	}

	temps := make([]float64, len(readings))
	vibs := make([]float64, len(readings))
	press := make([]float64, len(readings))

	for i, r := range readings {
		temps[i] = r.Temperature
		vibs[i] = r.Vibration
		press[i] = r.Pressure
	}

	return Aggregates{
		MeanT:   Mean(temps),
		MeanV:   Mean(vibs),
		MeanP:   Mean(press),
		MaxV:    Max(vibs),
		MaxP:    Max(press),
		StdDevT: StdDev(temps),
		StdDevV: StdDev(vibs),
		StdDevP: StdDev(press),
		TrendT:  Trend(temps),
		TrendV:  Trend(vibs),
		TrendP:  Trend(press),
	}, nil
}
