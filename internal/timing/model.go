package timing

import (
  "errors"
  "fmt"
  "math"

  "gonum.org/v1/gonum/floats"
  "gonum.org/v1/gonum/stat"
)

// dispersionConstant is 1/2.41e-4 s MHz² pc⁻¹ cm³.
const dispersionConstant = 1 / 2.41e-4

// ErrNoEpoch is returned for a model without F0 or PEPOCH.
var ErrNoEpoch = errors.New("timing: model needs F0 and PEPOCH")

// spin is the phase model: a Taylor series in emission time about epoch.
type spin struct {
  epoch          MJD
  f0, f1, f2, dm float64
}

func spinFrom(m *Model) (spin, error) {
  p, ok := m.Param("PEPOCH")
  if !ok {
    return spin{}, ErrNoEpoch
  }
  epoch, err := ParseMJD(p.Value)
  if err != nil {
    return spin{}, err
  }
  if _, ok := m.Param("F0"); !ok {
    return spin{}, ErrNoEpoch
  }

  s := spin{epoch: epoch}
  for _, v := range []struct {
    name string
    dst  *float64
  }{
    {"F0", &s.f0}, {"F1", &s.f1}, {"F2", &s.f2}, {"DM", &s.dm},
  } {
    if *v.dst, err = m.Float(v.name, 0); err != nil {
      return spin{}, err
    }
  }
  if s.f0 <= 0 {
    return spin{}, fmt.Errorf("timing: F0 %g must be positive", s.f0)
  }
  return s, nil
}

// delay is the dispersion delay in seconds. Infinite or unset frequency
// means none.
func delay(dm, freqMHz float64) float64 {
  if freqMHz <= 0 || math.IsInf(freqMHz, 0) {
    return 0
  }
  return dm * dispersionConstant / (freqMHz * freqMHz)
}

// elapsed is emission time since epoch in seconds.
func (s spin) elapsed(t TOA) float64 {
  return t.MJD.Sub(s.epoch) - delay(s.dm, t.FreqMHz)
}

func (s spin) phase(dt float64) float64 {
  return s.f0*dt + s.f1*dt*dt/2 + s.f2*dt*dt*dt/6
}

func (s spin) freq(dt float64) float64 {
  return s.f0 + s.f1*dt + s.f2*dt*dt/2
}

// offsets are changes to the fitted spin parameters. They are kept apart
// from spin because a step of 1e-19 Hz vanishes when added to F0.
type offsets struct {
  f0, f1, f2, dm float64
}

func (s spin) plus(d offsets) spin {
  s.f0 += d.f0
  s.f1 += d.f1
  s.f2 += d.f2
  s.dm += d.dm
  return s
}

// shift is the phase of s moved by d at t minus the phase of s at t, built
// from d alone so it stays exact however small d is.
func (s spin) shift(d offsets, t TOA) float64 {
  t0 := s.elapsed(t)
  dd := delay(d.dm, t.FreqMHz)
  n := s.plus(d)

  moved := -n.freq(t0)*dd + (n.f1+n.f2*t0)*dd*dd/2 - n.f2*dd*dd*dd/6
  coeffs := d.f0*t0 + d.f1*t0*t0/2 + d.f2*t0*t0*t0/6

  return moved + coeffs
}

// Residuals are timing residuals for a TOA set.
type Residuals struct {
  MJD     []float64
  Seconds []float64
  ErrorUS []float64
  Pulse   []float64
  Chi2    float64

  frac []float64
}

// Microseconds returns the residuals in µs.
func (r Residuals) Microseconds() []float64 {
  us := make([]float64, len(r.Seconds))
  floats.ScaleTo(us, 1e6, r.Seconds)
  return us
}

// RMS is the weighted RMS in µs.
func (r Residuals) RMS() float64 {
  if len(r.Seconds) == 0 {
    return 0
  }
  w := weights(r.ErrorUS)
  sq := make([]float64, len(r.Seconds))
  floats.MulTo(sq, r.Seconds, r.Seconds)
  return math.Sqrt(stat.Mean(sq, w)) * 1e6
}

func weights(errUS []float64) []float64 {
  w := make([]float64, len(errUS))
  for i, e := range errUS {
    w[i] = 1 / (e * e)
  }
  return w
}

// Prefit computes residuals of toas against m, taking each pulse number
// as the nearest integer phase.
func Prefit(m *Model, toas []TOA) (Residuals, error) {
  s, err := spinFrom(m)
  if err != nil {
    return Residuals{}, err
  }
  if len(toas) == 0 {
    return Residuals{}, ErrTooFewTOAs
  }

  r := Residuals{
    Pulse: make([]float64, len(toas)),
    frac:  make([]float64, len(toas)),
  }
  for i, t := range toas {
    ph := s.phase(s.elapsed(t))
    r.Pulse[i] = math.Round(ph)
    r.frac[i] = ph - r.Pulse[i]
  }
  r.fill(toas, r.frac, s.f0)

  return r, nil
}

// fill converts fractional phases to mean-subtracted seconds.
func (r *Residuals) fill(toas []TOA, frac []float64, f0 float64) {
  r.MJD = make([]float64, len(toas))
  r.ErrorUS = make([]float64, len(toas))
  r.Seconds = make([]float64, len(toas))
  for i, t := range toas {
    r.MJD[i] = t.MJD.Float()
    r.ErrorUS[i] = t.ErrorUS
  }

  mean := stat.Mean(frac, weights(r.ErrorUS))
  r.Chi2 = 0
  for i := range frac {
    r.Seconds[i] = (frac[i] - mean) / f0
    z := r.Seconds[i] / (r.ErrorUS[i] * 1e-6)
    r.Chi2 += z * z
  }
}
