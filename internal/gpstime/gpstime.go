// Package gpstime converts GPS-second timestamps for display.
//
// The conversion fixes the format but not the time standard: values are
// shown on the TAI scale (GPS + 19 s) with no leap-second handling. That is
// good enough for a plot title and nothing else.
package gpstime

import (
  "math"
  "time"

  "github.com/soniakeys/meeus/v3/julian"
)

const (
  // ISOLayout matches a three-decimal "iso" rendering.
  ISOLayout = "2006-01-02 15:04:05.000"

  taiMinusGPS = 19 * time.Second
  mjdOffset   = 2400000.5
)

// Epoch is the start of GPS time.
var Epoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// Time returns the instant gps seconds after the GPS epoch, TAI scale.
func Time(gps float64) time.Time {
  sec, frac := math.Modf(gps)
  return Epoch.
    Add(time.Duration(sec) * time.Second).
    Add(time.Duration(math.Round(frac * 1e9))).
    Add(taiMinusGPS)
}

// ISO renders a GPS timestamp as "YYYY-MM-DD hh:mm:ss.sss".
func ISO(gps float64) string {
  return Time(gps).Format(ISOLayout)
}

// MJD is the modified Julian date of a GPS timestamp, same scale as Time.
func MJD(gps float64) float64 {
  return julian.TimeToJD(Time(gps)) - mjdOffset
}

// MJDToTime converts a modified Julian date to a calendar instant.
func MJDToTime(mjd float64) time.Time {
  return julian.JDToTime(mjd + mjdOffset)
}
