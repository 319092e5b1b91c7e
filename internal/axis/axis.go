// Package axis turns a sample count into an hour-labelled time axis.
package axis

import (
  "math"
  "strconv"

  "gonum.org/v1/gonum/floats"
)

const (
  secondsPerHour = 3600
  minutesPerHour = 60
)

// Duration describes how long a uniformly sampled recording lasts and where
// its hour and minute ticks fall, in sample-index space.
type Duration struct {
  TotalSeconds       float64
  TotalHours         float64
  RoundedHours       int
  RoundedHourSamples float64
  MajorTicks         []float64
  MinorTicks         []float64
}

// Normalize derives the duration and tick positions of a series with
// sampleCount samples taken every samplingPeriod seconds. The hour count is
// always rounded up so the last partial hour stays on the axis.
func Normalize(
  sampleCount int,
  samplingPeriod float64,
) (
  Duration,
) {

  totalSeconds := float64(sampleCount) * samplingPeriod
  totalHours := totalSeconds / secondsPerHour
  roundedHours := int(math.Ceil(totalHours))

  d := Duration{
    TotalSeconds:       totalSeconds,
    TotalHours:         totalHours,
    RoundedHours:       roundedHours,
    RoundedHourSamples: float64(roundedHours) * secondsPerHour / samplingPeriod,
  }
  d.MajorTicks, d.MinorTicks = ticks(d.RoundedHours, d.RoundedHourSamples)

  return d
}

// ticks spaces hourly and per-minute ticks over [0, samples].
func ticks(
  hours int,
  samples float64,
) (
  major, minor []float64,
) {
  return linspace(0, samples, hours+1), linspace(0, samples, hours*minutesPerHour+1)
}

// linspace matches numpy's: n evenly spaced values from lo to hi inclusive.
// A single value collapses to lo.
func linspace(lo, hi float64, n int) []float64 {
  switch {
  case n <= 0:
    return nil
  case n == 1:
    return []float64{lo}
  }
  return floats.Span(make([]float64, n), lo, hi)
}

// HourLabels labels the major ticks 0.0, 1.0, ... RoundedHours.
func (d Duration) HourLabels() []string {
  hours := linspace(0, float64(d.RoundedHours), d.RoundedHours+1)
  labels := make([]string, len(hours))
  for i, h := range hours {
    labels[i] = strconv.FormatFloat(h, 'f', 1, 64)
  }
  return labels
}

// Halved returns d with its length halved while the sample range is kept,
// for series whose preprocessing wrote every sample twice.
func (d Duration) Halved() Duration {
  h := d
  h.TotalSeconds /= 2
  h.TotalHours /= 2
  h.RoundedHours /= 2
  h.MajorTicks, h.MinorTicks = ticks(h.RoundedHours, h.RoundedHourSamples)
  return h
}
