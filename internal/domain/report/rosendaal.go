package report

import (
	"math"
	"time"

	"github.com/favodev/meditech/internal/domain/patient"
)

// Intervals longer than this are excluded from the TTR totals. Linear
// interpolation over a months-long gap would extrapolate a stale trend.
const maxRosendaalIntervalDays = 56

// ComputeTTR estimates the percentage of days the patient's INR sat inside
// the therapeutic range, using the Rosendaal linear interpolation method.
//
// The history must already be sorted ascending by date. For each consecutive
// pair the INR is interpolated at whole-day steps across the interval
// (ceil of the elapsed time in days); a day counts when min <= inr <= max.
// Pairs with a non-positive or implausibly long interval contribute nothing.
// Returns 0 with fewer than 2 observations or no evaluable days. The result
// is rounded to 2 decimals.
func ComputeTTR(history []Observation, rng patient.TherapeuticRange) float64 {
	if len(history) < 2 {
		return 0
	}

	var daysInRange, totalDays int
	for i := 0; i < len(history)-1; i++ {
		start, end := history[i], history[i+1]
		intervalDays := int(math.Ceil(end.Fecha.Sub(start.Fecha).Hours() / 24))
		if intervalDays <= 0 || intervalDays > maxRosendaalIntervalDays {
			continue
		}
		slope := (end.INR - start.INR) / float64(intervalDays)
		for j := 0; j < intervalDays; j++ {
			inr := start.INR + slope*float64(j)
			if rng.Contains(inr) {
				daysInRange++
			}
		}
		totalDays += intervalDays
	}

	if totalDays == 0 {
		return 0
	}
	return round2(float64(daysInRange) / float64(totalDays) * 100)
}

// IntervalTTR previews the TTR contribution of a not-yet-saved reading
// against the single prior control, using the same engine over a 2-point
// series.
func IntervalTTR(prior Observation, newINR float64, newDate time.Time, rng patient.TherapeuticRange) float64 {
	return ComputeTTR([]Observation{prior, {Fecha: newDate, INR: newINR}}, rng)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
