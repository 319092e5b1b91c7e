package series

import (
  "fmt"
  "strconv"
  "strings"
)

// File name suffixes written by the recorder and by the preprocessing step.
const (
  RawSuffix     = "-PSRB0329-2ms-sampling-dd.dat"
  PreprocSuffix = "-preproc.dat"
)

// ParseRawName returns the GPS start time encoded in a raw file name.
func ParseRawName(name string) (float64, error) {
  stem, ok := strings.CutSuffix(name, RawSuffix)
  if !ok {
    return 0, fmt.Errorf("series: %q is not a raw file name", name)
  }
  gps, err := strconv.ParseFloat(stem, 64)
  if err != nil {
    return 0, fmt.Errorf("series: %q: bad GPS start time: %w", name, err)
  }
  return gps, nil
}

// Key formats a GPS start time the way file names carry it: the shortest
// decimal that round-trips, with ".0" kept on whole seconds.
func Key(gps float64) string {
  s := strconv.FormatFloat(gps, 'f', -1, 64)
  if !strings.ContainsAny(s, ".eEnN") {
    s += ".0"
  }
  return s
}

// RawName is the raw file name for a GPS start time.
func RawName(gps float64) string { return Key(gps) + RawSuffix }

// PreprocName is the preprocessed file name for a GPS start time.
func PreprocName(gps float64) string { return Key(gps) + PreprocSuffix }
