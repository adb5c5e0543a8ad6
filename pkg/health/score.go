// Package health pkg/health/score.go implements the fixed-formula equipment
// health scoring engine. All functions are pure and deterministic: the same
// ordered reading window always produces the same result.
package health

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/pulsewatch/pulsewatch/pkg/models"
	"github.com/pulsewatch/pulsewatch/pkg/stats"
)

// Component weights. Vibration carries the highest weight because it is the
// strongest proxy for mechanical failure.
const (
	weightTemperature = 0.30
	weightVibration   = 0.35
	weightPressure    = 0.35
)

// Ideal operating bands and penalty rates.
const (
	tempIdealLow   = 60.0
	tempIdealHigh  = 80.0
	tempLowRate    = 1.5
	tempHighRate   = 2.5
	tempStdDevMin  = 5.0
	tempTrendMin   = 3.0
	tempTrendCap   = 15.0
	tempStdDevCap  = 20.0

	vibIdealMean   = 0.3
	vibMeanRate    = 50.0
	vibSpikeAt     = 0.5
	vibSpikeRate   = 40.0
	vibStdDevMin   = 0.15
	vibStdDevRate  = 30.0
	vibStdDevCap   = 25.0
	vibTrendMin    = 0.05
	vibTrendRate   = 40.0
	vibTrendCap    = 20.0

	pressIdealLow   = 30.0
	pressIdealHigh  = 40.0
	pressLowRate    = 2.0
	pressHighRate   = 3.0
	pressSpikeAt    = 50.0
	pressSpikeRate  = 2.0
	pressStdDevMin  = 3.0
	pressStdDevRate = 3.0
	pressStdDevCap  = 20.0
	pressTrendMin   = 2.0
	pressTrendRate  = 2.0
	pressTrendCap   = 15.0
)

// neutralScore is substituted for a component when no data is available.
const neutralScore = 100.0

// reasonHealthy is the reason string when no component is below 70.
const reasonHealthy = "All metrics within normal range. System operating optimally."

// ScoreTemperature maps a reading window to a temperature component score in
// [0,100]. Penalties apply for drift out of the ideal band, instability, and
// a rising trend.
func ScoreTemperature(readings []models.SensorReading) float64 {
	agg, err := stats.Compute(readings)
	if errors.Is(err, stats.ErrInsufficientData) {
		return neutralScore
	}

	score := 100.0

	if agg.MeanT < tempIdealLow {
		score -= (tempIdealLow - agg.MeanT) * tempLowRate
	} else if agg.MeanT > tempIdealHigh {
		score -= (agg.MeanT - tempIdealHigh) * tempHighRate
	}

	if agg.StdDevT > tempStdDevMin {
		score -= math.Min(agg.StdDevT*2, tempStdDevCap)
	}

	if agg.TrendT > tempTrendMin {
		score -= math.Min(agg.TrendT, tempTrendCap)
	}

	return clamp(score)
}

// ScoreVibration maps a reading window to a vibration component score in
// [0,100]. The model operates on the raw vibration unit; stored readings are
// on the normalized 0-100 scale, so values are converted back first.
func ScoreVibration(readings []models.SensorReading) float64 {
	agg, err := stats.Compute(readings)
	if errors.Is(err, stats.ErrInsufficientData) {
		return neutralScore
	}

	mean := agg.MeanV / models.VibrationScale
	max := agg.MaxV / models.VibrationScale
	stdDev := agg.StdDevV / models.VibrationScale
	trend := agg.TrendV / models.VibrationScale

	score := 100.0

	if mean > vibIdealMean {
		score -= (mean - vibIdealMean) * vibMeanRate
	}

	if max > vibSpikeAt {
		score -= (max - vibSpikeAt) * vibSpikeRate
	}

	if stdDev > vibStdDevMin {
		score -= math.Min(stdDev*vibStdDevRate, vibStdDevCap)
	}

	if trend > vibTrendMin {
		score -= math.Min(trend*vibTrendRate, vibTrendCap)
	}

	return clamp(score)
}

// ScorePressure maps a reading window to a pressure component score in
// [0,100].
func ScorePressure(readings []models.SensorReading) float64 {
	agg, err := stats.Compute(readings)
	if errors.Is(err, stats.ErrInsufficientData) {
		return neutralScore
	}

	score := 100.0

	if agg.MeanP < pressIdealLow {
		score -= (pressIdealLow - agg.MeanP) * pressLowRate
	} else if agg.MeanP > pressIdealHigh {
		score -= (agg.MeanP - pressIdealHigh) * pressHighRate
	}

	if agg.MaxP > pressSpikeAt {
		score -= (agg.MaxP - pressSpikeAt) * pressSpikeRate
	}

	if agg.StdDevP > pressStdDevMin {
		score -= math.Min(agg.StdDevP*pressStdDevRate, pressStdDevCap)
	}

	if math.Abs(agg.TrendP) > pressTrendMin {
		score -= math.Min(math.Abs(agg.TrendP)*pressTrendRate, pressTrendCap)
	}

	return clamp(score)
}

// ComputeHealth combines the component scores into a DeviceHealthState.
// DeviceID and ComputedAt are filled in by the caller. An empty window yields
// the optimistic default: no evidence of degradation.
func ComputeHealth(readings []models.SensorReading) models.DeviceHealthState {
	if len(readings) == 0 {
		return models.DeviceHealthState{
			HealthScore: 100,
			FailureRisk: models.RiskLow,
			Status:      models.StatusStable,
			ComponentScores: models.ComponentScores{
				Temperature: neutralScore,
				Vibration:   neutralScore,
				Pressure:    neutralScore,
			},
			Reason: reasonHealthy,
		}
	}

	tempScore := ScoreTemperature(readings)
	vibScore := ScoreVibration(readings)
	pressScore := ScorePressure(readings)

	score := int(math.Round(tempScore*weightTemperature +
		vibScore*weightVibration +
		pressScore*weightPressure))

	risk, status := classify(score)

	return models.DeviceHealthState{
		HealthScore: score,
		FailureRisk: risk,
		Status:      status,
		ComponentScores: models.ComponentScores{
			Temperature: tempScore,
			Vibration:   vibScore,
			Pressure:    pressScore,
		},
		Reason: buildReason(tempScore, vibScore, pressScore),
	}
}

// ComputeHealthAt is ComputeHealth with the device identity and computation
// time stamped on.
func ComputeHealthAt(deviceID string, readings []models.SensorReading, at time.Time) models.DeviceHealthState {
	state := ComputeHealth(readings)
	state.DeviceID = deviceID
	state.ComputedAt = at

	return state
}

// classify maps a health score to (risk, status). Rows are evaluated in
// order; exactly one applies for any score.
func classify(score int) (models.FailureRisk, models.DeviceStatus) {
	switch {
	case score < 30:
		return models.RiskHigh, models.StatusCritical
	case score < 50:
		return models.RiskHigh, models.StatusDegrading
	case score < 70:
		return models.RiskMedium, models.StatusDegrading
	default:
		return models.RiskLow, models.StatusStable
	}
}

// buildReason assembles the human-readable explanation, one fragment per
// component below 70, in temperature, vibration, pressure order.
func buildReason(tempScore, vibScore, pressScore float64) string {
	var parts []string

	switch {
	case tempScore < 60:
		parts = append(parts, "Critical temperature deviation detected.")
	case tempScore < 70:
		parts = append(parts, "Temperature concerns detected.")
	}

	switch {
	case vibScore < 60:
		parts = append(parts, "Critical vibration levels detected.")
	case vibScore < 70:
		parts = append(parts, "Vibration levels rising.")
	}

	switch {
	case pressScore < 60:
		parts = append(parts, "Critical pressure readings detected.")
	case pressScore < 70:
		parts = append(parts, "Pressure fluctuations observed.")
	}

	if len(parts) == 0 {
		return reasonHealthy
	}

	return strings.Join(parts, " ")
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}

	if score > 100 {
		return 100
	}

	return score
}
