// Package gnuplot draws figures in interactive gnuplot windows.
//
// It is kept apart from render because glot refuses to load without a
// gnuplot binary on PATH; only commands that offer a display link it.
package gnuplot

import (
  "errors"
  "fmt"
  "strconv"
  "strings"

  "github.com/Arafatk/glot"

  "github.com/HamletTheHamster/pulsar-plots/internal/render"
)

// Display opens one persistent gnuplot window per panel, for looking at
// a recording with more precision than a PDF allows. Windows stay open
// after Close; Close ends the gnuplot processes and removes their data
// files.
type Display struct {
  Style render.Style

  plots []*glot.Plot
}

// New returns a display drawing with style.
func New(style render.Style) *Display {
  return &Display{Style: style}
}

// Render ignores path; nothing is written.
func (d *Display) Render(fig render.Figure, path string) error {
  for i, pn := range fig.Panels {
    if err := d.panel(fig.Title, pn); err != nil {
      return fmt.Errorf("gnuplot: display panel %d: %w", i, err)
    }
  }
  return nil
}

// Close releases every plot opened so far.
func (d *Display) Close() error {
  var errs []error
  for _, p := range d.plots {
    if err := p.Close(); err != nil {
      errs = append(errs, err)
    }
  }
  d.plots = nil
  return errors.Join(errs...)
}

func (d *Display) panel(
  suptitle string,
  pn render.Panel,
) error {

  dimensions := 2
  persist := true
  debug := false
  plot, err := glot.NewPlot(dimensions, persist, debug)
  if err != nil {
    return err
  }
  d.plots = append(d.plots, plot)

  title := pn.Title
  if suptitle != "" {
    title = suptitle + " - " + title
  }
  font := d.Style.FontFamily
  if err := plot.Cmd(fmt.Sprintf("set title %q font \"%s,%g\"", title, font, d.Style.FontSize)); err != nil {
    return err
  }
  plot.SetXLabel(pn.XLabel)
  plot.SetYLabel(pn.YLabel)

  for _, cmd := range ticks(pn, d.Style) {
    if err := plot.Cmd(cmd); err != nil {
      return err
    }
  }

  if pn.Series == nil || pn.Series.Len() == 0 {
    return nil
  }
  xy := render.Decimate(pn.Series, d.Style.MaxPoints)
  xs := make([]float64, xy.Len())
  ys := make([]float64, xy.Len())
  for i := range xs {
    xs[i], ys[i] = xy.XY(i)
  }
  return plot.AddPointGroup(pn.Title, "lines", [][]float64{xs, ys})
}

// ticks translates hour ticks into gnuplot commands: labelled major tics,
// unlabelled minor tics (level 1), sizes and grid.
func ticks(pn render.Panel, style render.Style) []string {
  var major []string
  for i, v := range pn.Major {
    label := ""
    if i < len(pn.Labels) {
      label = pn.Labels[i]
    }
    major = append(major, fmt.Sprintf("%q %s", label, formatPos(v)))
  }
  var minor []string
  for _, v := range pn.Minor {
    minor = append(minor, fmt.Sprintf("\"\" %s 1", formatPos(v)))
  }

  cmds := []string{
    fmt.Sprintf("set xtics (%s) font \",%g\"", strings.Join(major, ", "), style.XTickSize),
    fmt.Sprintf("set ytics font \",%g\"", style.YTickSize),
  }
  if len(minor) > 0 {
    cmds = append(cmds, fmt.Sprintf("set xtics add (%s)", strings.Join(minor, ", ")))
  }
  if len(pn.Major) > 1 {
    cmds = append(cmds, fmt.Sprintf("set xrange [%s:%s]", formatPos(pn.Major[0]), formatPos(pn.Major[len(pn.Major)-1])))
  }
  if style.GridEnabled {
    cmds = append(cmds, "set grid xtics mxtics ytics")
  }
  return cmds
}

func formatPos(v float64) string {
  return strconv.FormatFloat(v, 'f', -1, 64)
}
