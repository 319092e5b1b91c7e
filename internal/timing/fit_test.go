package timing

import (
  "bytes"
  "fmt"
  "math"
  "os"
  "path/filepath"
  "strings"
  "testing"

  "github.com/maorshutman/lm"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "gonum.org/v1/gonum/floats"
  "gonum.org/v1/gonum/mat"

  "github.com/HamletTheHamster/pulsar-plots/internal/render"
)

func truth(t *testing.T) *Model {
  t.Helper()
  m, err := ParsePar(strings.NewReader(b0329Par))
  require.NoError(t, err)
  return m
}

func arrival(epoch MJD, sec float64) MJD {
  total := epoch.Frac*secondsPerDay + sec
  days := math.Floor(total / secondsPerDay)
  return MJD{Day: epoch.Day + int64(days), Frac: (total - days*secondsPerDay) / secondsPerDay}
}

// synthetic returns n TOAs that land on whole pulses of m, alternating
// between two observing frequencies.
func synthetic(t *testing.T, m *Model, n int) []TOA {
  t.Helper()

  s, err := spinFrom(m)
  require.NoError(t, err)

  toas := make([]TOA, n)
  for i := range toas {
    freq := 430.0
    if i%2 == 1 {
      freq = 1400
    }
    te := -6e6 + float64(i)*12e6/float64(n-1) + 1234.5
    pulse := math.Round(s.phase(te))
    for k := 0; k < 3; k++ {
      te -= (s.phase(te) - pulse) / s.freq(te)
    }
    toas[i] = TOA{
      Name:    fmt.Sprintf("obs%02d.ar", i),
      FreqMHz: freq,
      MJD:     arrival(s.epoch, te+delay(s.dm, freq)),
      ErrorUS: 1,
      Site:    "gbt",
    }
  }
  return toas
}

func TestPrefitOnTruth(t *testing.T) {

  m := truth(t)
  toas := synthetic(t, m, 40)

  r, err := Prefit(m, toas)
  require.NoError(t, err)
  require.Len(t, r.Seconds, 40)

  for i, us := range r.Microseconds() {
    assert.InDelta(t, 0, us, 0.01, "toa %d", i)
  }
  assert.Less(t, r.Chi2, 1e-3)
  assert.Equal(t, toas[3].MJD.Float(), r.MJD[3])
  assert.Equal(t, 1.0, r.ErrorUS[3])
}

func TestPrefitNeedsEpoch(t *testing.T) {
  m, err := ParsePar(strings.NewReader("F0 1.3\n"))
  require.NoError(t, err)

  _, err = Prefit(m, []TOA{{ErrorUS: 1}})
  assert.ErrorIs(t, err, ErrNoEpoch)
}

func TestShiftKeepsTinyOffsets(t *testing.T) {
  m := truth(t)
  s, err := spinFrom(m)
  require.NoError(t, err)
  toa := synthetic(t, m, 2)[1]
  t0 := s.elapsed(toa)
  require.Greater(t, t0, 1e6)

  // far below the spacing of float64 values near F0
  got := s.shift(offsets{f0: 3e-19}, toa)
  assert.NotZero(t, got)
  assert.InEpsilon(t, 3e-19*t0, got, 1e-9)

  got = s.shift(offsets{dm: 1e-12}, toa)
  assert.InEpsilon(t, -s.freq(t0)*delay(1e-12, toa.FreqMHz), got, 1e-9)

  assert.Zero(t, s.shift(offsets{}, toa))
}

func TestWLSJacobianColumns(t *testing.T) {
  m := truth(t)
  toas := synthetic(t, m, 30)

  p, err := newWLS(m, toas, DefaultFit)
  require.NoError(t, err)

  jac := mat.NewDense(len(toas), p.dim(), nil)
  jacobian := lm.NumJac{Func: p.residual}
  jacobian.Jac(jac, make([]float64, p.dim()))

  for j := 0; j < p.dim(); j++ {
    norm := floats.Norm(mat.Col(nil, j, jac), 2)
    assert.InDelta(t, 1, norm, 1e-3, "column %d", j)
  }

  _, err = covariance(p.residual, make([]float64, p.dim()), len(toas))
  assert.NoError(t, err)
}

func TestFitRecoversOffsets(t *testing.T) {

  m := truth(t)
  toas := synthetic(t, m, 60)

  f0, err := m.Float("F0", 0)
  require.NoError(t, err)
  f1, err := m.Float("F1", 0)
  require.NoError(t, err)
  dm, err := m.Float("DM", 0)
  require.NoError(t, err)

  start := m.Clone()
  start.SetFloat("F0", f0+2e-11, 3e-12)
  start.SetFloat("DM", dm+0.01, 1e-3)

  fitter := &Fitter{Model: start, TOAs: toas}
  fit, err := fitter.Fit("F0", "f1", "DM", "F0")
  require.NoError(t, err)

  assert.Greater(t, fit.Prefit.RMS(), 10.0)
  assert.Less(t, fit.Postfit.RMS(), 0.05)
  assert.Equal(t, 60-4, fit.DOF)
  assert.Less(t, fit.ReducedChi2, 1e-2)

  require.Len(t, fit.Params, 3)
  got := map[string]Fitted{}
  for _, p := range fit.Params {
    got[p.Name] = p
    assert.Greater(t, p.Uncertainty, 0.0, p.Name)
  }
  assert.InDelta(t, f0, got["F0"].Postfit, 1e-13)
  assert.InDelta(t, f0+2e-11, got["F0"].Prefit, 1e-20)
  assert.InDelta(t, f1, got["F1"].Postfit, 1e-19)
  assert.InDelta(t, dm, got["DM"].Postfit, 1e-5)

  fitted, err := fit.Model.Float("F0", 0)
  require.NoError(t, err)
  assert.Equal(t, got["F0"].Postfit, fitted)

  before, err := start.Float("F0", 0)
  require.NoError(t, err)
  assert.Equal(t, f0+2e-11, before, "the starting model is left alone")

  assert.Equal(t, fit.Prefit.Pulse, fit.Postfit.Pulse)
}

func TestFitDefaultParams(t *testing.T) {
  m := truth(t)
  fit, err := (&Fitter{Model: m, TOAs: synthetic(t, m, 30)}).Fit()
  require.NoError(t, err)

  var names []string
  for _, p := range fit.Params {
    names = append(names, p.Name)
  }
  assert.Equal(t, DefaultFit, names)

  f2, ok := fit.Model.Param("F2")
  require.True(t, ok, "F2 is added to the model")
  assert.True(t, f2.Fit)
}

func TestFitErrors(t *testing.T) {

  m := truth(t)
  toas := synthetic(t, m, 20)

  _, err := (&Fitter{Model: m, TOAs: toas}).Fit("F0", "RAJ")
  assert.ErrorIs(t, err, ErrUnsupportedParam)

  _, err = (&Fitter{Model: m, TOAs: toas[:3]}).Fit("F0", "F1", "DM")
  assert.ErrorIs(t, err, ErrTooFewTOAs)

  flat := make([]TOA, len(toas))
  copy(flat, toas)
  for i := range flat {
    flat[i].FreqMHz = 0
  }
  _, err = (&Fitter{Model: m, TOAs: flat}).Fit("DM")
  assert.ErrorContains(t, err, "DM is not constrained")
}

type fakeResiduals struct {
  figs  []render.ResidualFigure
  paths []string
}

func (f *fakeResiduals) RenderResiduals(fig render.ResidualFigure, path string) error {
  f.figs = append(f.figs, fig)
  f.paths = append(f.paths, path)
  return nil
}

func TestPlots(t *testing.T) {

  m := truth(t)
  r, err := Prefit(m, synthetic(t, m, 10))
  require.NoError(t, err)

  fake := &fakeResiduals{}
  pre, err := PlotPrefit(fake, "out", m.PSR(), r)
  require.NoError(t, err)
  post, err := PlotPostfit(fake, "out", m.PSR(), r)
  require.NoError(t, err)

  assert.Equal(t, filepath.Join("out", "Pre_fit_residuals.pdf"), pre)
  assert.Equal(t, filepath.Join("out", "Post_fit_residuals.pdf"), post)
  assert.Equal(t, "J0332+5434 Pre-fit Timing Residuals", fake.figs[0].Title)
  assert.Equal(t, "J0332+5434 Post-Fit Timing Residuals", fake.figs[1].Title)
  assert.Equal(t, "MJD", fake.figs[0].XLabel)
  assert.Equal(t, "Residual (μs)", fake.figs[0].YLabel)
  assert.Equal(t, r.MJD, fake.figs[0].X)
  assert.Equal(t, r.ErrorUS, fake.figs[0].Err)

  dir := t.TempDir()
  path, err := PlotPrefit(render.File{Style: render.DefaultStyle()}, dir, m.PSR(), r)
  require.NoError(t, err)
  b, err := os.ReadFile(path)
  require.NoError(t, err)
  assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestFitIterationLimit(t *testing.T) {
  m := truth(t)
  toas := synthetic(t, m, 20)

  start := m.Clone()
  f0, err := m.Float("F0", 0)
  require.NoError(t, err)
  start.SetFloat("F0", f0+2e-11, 0)

  fitter := &Fitter{Model: start, TOAs: toas, Settings: &lm.Settings{Iterations: 1, ObjectiveTol: 1e-16}}
  _, err = fitter.Fit("F0")
  assert.ErrorIs(t, err, ErrNoConvergence)
}
