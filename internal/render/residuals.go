package render

import (
  "errors"
  "fmt"
  "image/color"

  "gonum.org/v1/plot/plotter"
  "gonum.org/v1/plot/vg"
  "gonum.org/v1/plot/vg/draw"
)

// ResidualFigure is a scatter of timing residuals with symmetric error bars.
type ResidualFigure struct {
  Title, XLabel, YLabel string

  X, Y, Err []float64
}

var residualColor = color.RGBA{B: 255, A: 255}

type errorPoints struct {
  plotter.XYs
  plotter.YErrors
}

// RenderResiduals draws fig on its own and writes it to path.
func (f File) RenderResiduals(
  fig ResidualFigure,
  path string,
) error {

  if len(fig.X) != len(fig.Y) || len(fig.X) != len(fig.Err) {
    return errors.New("render: residual columns differ in length")
  }

  p := newPlot(fig.Title, fig.XLabel, fig.YLabel, f.Style)
  if f.Style.GridEnabled {
    g := plotter.NewGrid()
    g.Vertical.Color = majorGrid
    g.Horizontal.Color = majorGrid
    p.Add(g)
  }

  if len(fig.X) > 0 {
    pts := buildData(fig.X, fig.Y)
    setPoints := errorPoints{
      XYs:     pts,
      YErrors: plotter.YErrors(buildErrors(fig.Err)),
    }

    scatter, err := plotter.NewScatter(setPoints)
    if err != nil {
      return fmt.Errorf("render: %w", err)
    }
    scatter.GlyphStyle.Color = residualColor
    scatter.GlyphStyle.Radius = vg.Points(1.5)
    scatter.Shape = draw.CircleGlyph{}

    e, err := plotter.NewYErrorBars(setPoints)
    if err != nil {
      return fmt.Errorf("render: %w", err)
    }
    e.LineStyle.Color = residualColor

    p.Add(e, scatter)
  }

  w, h := f.Style.size()
  c, err := newCanvas(w, h, path)
  if err != nil {
    return err
  }
  p.Draw(draw.New(c))
  return save(c, path)
}

func buildData(
  x, y []float64,
) (
  plotter.XYs,
) {

  xy := make(plotter.XYs, len(x))

  for i := range xy {
    xy[i].X = x[i]
    xy[i].Y = y[i]
  }

  return xy
}

func buildErrors(
  σ []float64,
) (
  plotter.Errors,
) {

  errs := make(plotter.Errors, len(σ))

  for i := range errs {
    errs[i].Low, errs[i].High = σ[i], σ[i]
  }

  return errs
}
