package timing

import (
  "path/filepath"

  "github.com/HamletTheHamster/pulsar-plots/internal/render"
)

const (
  PrefitFile  = "Pre_fit_residuals.pdf"
  PostfitFile = "Post_fit_residuals.pdf"
)

// ResidualRenderer draws residual figures; render.File is one.
type ResidualRenderer interface {
  RenderResiduals(fig render.ResidualFigure, path string) error
}

func figure(title string, r Residuals) render.ResidualFigure {
  return render.ResidualFigure{
    Title:  title,
    XLabel: "MJD",
    YLabel: "Residual (μs)",
    X:      r.MJD,
    Y:      r.Microseconds(),
    Err:    r.ErrorUS,
  }
}

// PlotPrefit writes the pre-fit residual plot into dir and returns its path.
func PlotPrefit(rr ResidualRenderer, dir, psr string, r Residuals) (string, error) {
  path := filepath.Join(dir, PrefitFile)
  return path, rr.RenderResiduals(figure(psr+" Pre-fit Timing Residuals", r), path)
}

// PlotPostfit writes the post-fit residual plot into dir and returns its path.
func PlotPostfit(rr ResidualRenderer, dir, psr string, r Residuals) (string, error) {
  path := filepath.Join(dir, PostfitFile)
  return path, rr.RenderResiduals(figure(psr+" Post-Fit Timing Residuals", r), path)
}
