package timing

import (
  "errors"
  "fmt"
  "math"
  "strings"

  "github.com/maorshutman/lm"
  "gonum.org/v1/gonum/diff/fd"
  "gonum.org/v1/gonum/floats"
  "gonum.org/v1/gonum/mat"
  "gonum.org/v1/gonum/optimize"
)

var (
  ErrUnsupportedParam = errors.New("timing: parameter is not modelled")
  ErrTooFewTOAs       = errors.New("timing: too few TOAs for the free parameters")
  ErrNoConvergence    = errors.New("timing: fit did not converge")
)

// DefaultFit is the parameter set fitted when none is named.
var DefaultFit = []string{"F0", "F1", "F2", "DM"}

// Fitted is one fitted parameter.
type Fitted struct {
  Name        string
  Prefit      float64
  Postfit     float64
  Uncertainty float64
}

// Fit is the outcome of a weighted least-squares fit.
type Fit struct {
  Model       *Model
  Prefit      Residuals
  Postfit     Residuals
  Params      []Fitted
  Chi2        float64
  DOF         int
  ReducedChi2 float64
}

// Fitter refits a model to TOAs.
type Fitter struct {
  Model    *Model
  TOAs     []TOA
  Settings *lm.Settings
}

func (f *Fitter) settings() *lm.Settings {
  if f.Settings != nil {
    return f.Settings
  }
  return &lm.Settings{Iterations: 1000, ObjectiveTol: 1e-16}
}

// Fit fits the named parameters, DefaultFit when none, plus a phase offset.
// Pulse numbers stay those of the pre-fit model.
func (f *Fitter) Fit(names ...string) (*Fit, error) {

  p, err := newWLS(f.Model, f.TOAs, names)
  if err != nil {
    return nil, err
  }
  dim, n := p.dim(), len(f.TOAs)

  jacobian := lm.NumJac{Func: p.residual}
  problem := lm.LMProblem{
    Dim:        dim,
    Size:       n,
    Func:       p.residual,
    Jac:        jacobian.Jac,
    InitParams: make([]float64, dim),
    Tau:        1e-6,
    Eps1:       1e-8,
    Eps2:       1e-8,
  }
  result, err := lm.LM(problem, f.settings())
  if err != nil {
    return nil, fmt.Errorf("%w: %w", ErrNoConvergence, err)
  }
  if result.Status == optimize.IterationLimit {
    return nil, fmt.Errorf("%w: %d iterations", ErrNoConvergence, f.settings().Iterations)
  }
  x := result.X
  for _, v := range x {
    if math.IsNaN(v) || math.IsInf(v, 0) {
      return nil, fmt.Errorf("%w: non-finite solution", ErrNoConvergence)
    }
  }

  cov, err := covariance(p.residual, x, n)
  if err != nil {
    return nil, err
  }

  d := p.step(x)
  post := p.s0.plus(d)
  out := f.Model.Clone()
  fit := &Fit{Model: out, Prefit: p.pre, DOF: n - dim}

  for j, name := range p.names {
    v := post.value(name)
    u := math.Sqrt(cov.At(j, j)) * p.scale[j]
    out.SetFloat(name, v, u)
    fit.Params = append(fit.Params, Fitted{
      Name:        name,
      Prefit:      p.s0.value(name),
      Postfit:     v,
      Uncertainty: u,
    })
  }

  frac := make([]float64, n)
  for i, t := range f.TOAs {
    frac[i] = p.pre.frac[i] + p.s0.shift(d, t)
  }
  fit.Postfit = Residuals{Pulse: p.pre.Pulse, frac: frac}
  fit.Postfit.fill(f.TOAs, frac, post.f0)

  fit.Chi2 = fit.Postfit.Chi2
  fit.ReducedChi2 = fit.Chi2 / float64(fit.DOF)

  return fit, nil
}

// wls is the scaled least-squares problem: x[j] moves names[j] by
// x[j]*scale[j] away from s0, and the last x is a phase offset.
type wls struct {
  s0    spin
  pre   Residuals
  toas  []TOA
  names []string
  sigma []float64
  scale []float64
}

func newWLS(
  m *Model,
  toas []TOA,
  names []string,
) (
  *wls, error,
) {

  names, err := normalize(names)
  if err != nil {
    return nil, err
  }
  s0, err := spinFrom(m)
  if err != nil {
    return nil, err
  }
  pre, err := Prefit(m, toas)
  if err != nil {
    return nil, err
  }

  dim := len(names) + 1
  if len(toas) <= dim {
    return nil, fmt.Errorf("%w: %d TOAs, %d free parameters", ErrTooFewTOAs, len(toas), dim)
  }

  sigma := make([]float64, len(toas))
  for i, t := range toas {
    sigma[i] = t.ErrorUS * 1e-6
  }
  scale, err := scales(s0, toas, sigma, names)
  if err != nil {
    return nil, err
  }

  return &wls{s0: s0, pre: pre, toas: toas, names: names, sigma: sigma, scale: scale}, nil
}

func (p *wls) dim() int {
  return len(p.names) + 1
}

func (p *wls) step(x []float64) offsets {
  var d offsets
  for j, name := range p.names {
    *field(&d, name) = x[j] * p.scale[j]
  }
  return d
}

// residual writes the weighted residuals in seconds at x.
func (p *wls) residual(dst, x []float64) {
  d := p.step(x)
  f0 := p.s0.f0 + d.f0
  phase := x[p.dim()-1] * p.scale[p.dim()-1]
  for i, t := range p.toas {
    frac := p.pre.frac[i] + p.s0.shift(d, t)
    dst[i] = (frac/f0 - phase) / p.sigma[i]
  }
}

func normalize(names []string) ([]string, error) {
  if len(names) == 0 {
    names = DefaultFit
  }
  seen := map[string]bool{}
  var out []string
  for _, name := range names {
    name = strings.ToUpper(strings.TrimSpace(name))
    if name == "" || seen[name] {
      continue
    }
    if field(&offsets{}, name) == nil {
      return nil, fmt.Errorf("%w: %s", ErrUnsupportedParam, name)
    }
    seen[name] = true
    out = append(out, name)
  }
  return out, nil
}

func field(d *offsets, name string) *float64 {
  switch name {
  case "F0":
    return &d.f0
  case "F1":
    return &d.f1
  case "F2":
    return &d.f2
  case "DM":
    return &d.dm
  }
  return nil
}

func (s spin) value(name string) float64 {
  d := offsets{f0: s.f0, f1: s.f1, f2: s.f2, dm: s.dm}
  return *field(&d, name)
}

// scales maps each free parameter, then the offset, to the step that moves
// the weighted residuals by unit norm.
func scales(
  s spin,
  toas []TOA,
  sigma []float64,
  names []string,
) (
  []float64, error,
) {

  col := make([]float64, len(toas))
  out := make([]float64, 0, len(names)+1)

  for _, name := range names {
    for i, t := range toas {
      dt := s.elapsed(t)
      var d float64
      switch name {
      case "F0":
        d = dt
      case "F1":
        d = dt * dt / 2
      case "F2":
        d = dt * dt * dt / 6
      case "DM":
        d = -s.freq(dt) * delay(1, t.FreqMHz)
      }
      col[i] = d / s.f0 / sigma[i]
    }
    norm := floats.Norm(col, 2)
    if norm == 0 {
      return nil, fmt.Errorf("timing: %s is not constrained by the TOAs", name)
    }
    out = append(out, 1/norm)
  }

  for i := range toas {
    col[i] = 1 / sigma[i]
  }
  return append(out, 1/floats.Norm(col, 2)), nil
}

// covariance is (JᵀJ)⁻¹ at x in the scaled parameters.
func covariance(
  residual func(dst, x []float64),
  x []float64,
  n int,
) (
  *mat.Dense, error,
) {

  jac := mat.NewDense(n, len(x), nil)
  fd.Jacobian(jac, residual, x, &fd.JacobianSettings{Formula: fd.Central})

  var jtj, cov mat.Dense
  jtj.Mul(jac.T(), jac)
  if err := cov.Inverse(&jtj); err != nil {
    return nil, fmt.Errorf("timing: parameters are degenerate: %w", err)
  }
  return &cov, nil
}
