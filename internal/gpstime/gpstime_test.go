package gpstime

import (
  "testing"
  "time"

  "github.com/stretchr/testify/assert"
)

func TestISO(t *testing.T) {
  assert.Equal(t, "2017-07-03 01:14:30.114", ISO(1183079651.114455))
  assert.Equal(t, "1980-01-06 00:00:19.000", ISO(0))
}

func TestTime_Fraction(t *testing.T) {
  got := Time(1.25)
  assert.Equal(t, Epoch.Add(20*time.Second+250*time.Millisecond), got)
}

func TestMJD(t *testing.T) {
  assert.InDelta(t, 44244+19.0/86400, MJD(0), 1e-7)
  assert.InDelta(t, 57937.05174, MJD(1183079651.114455), 1e-5)
}

func TestMJDToTime(t *testing.T) {
  got := MJDToTime(51544.5)
  want := time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)
  assert.WithinDuration(t, want, got, time.Millisecond)
}
