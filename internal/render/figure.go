package render

import (
  "image/color"

  "gonum.org/v1/plot"
  "gonum.org/v1/plot/plotter"
  "gonum.org/v1/plot/vg"
  "gonum.org/v1/plot/vg/draw"
)

// Panel is one time-series subplot with hour ticks in sample-index space.
type Panel struct {
  Title, XLabel, YLabel string

  Series plotter.XYer

  // Major carries Labels; Minor ticks are unlabelled.
  Major, Minor []float64
  Labels       []string
}

// Figure is one or more panels stacked top to bottom under a shared title.
type Figure struct {
  Title  string
  Panels []Panel
}

// Renderer turns a figure into output; path is where a file sink writes.
type Renderer interface {
  Render(fig Figure, path string) error
}

var (
  black     = color.Black
  majorGrid = color.NRGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0x80}
  minorGrid = color.NRGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0x33}

  traceWidth = vg.Points(0.05)
)

// newPlot builds an empty plot with the style's fonts and the panel's
// labels and ticks.
func newPlot(
  title, xlabel, ylabel string,
  style Style,
) (
  *plot.Plot,
) {

  p := plot.New()

  p.Title.Text = title
  p.Title.TextStyle.Font = style.face(style.FontSize)
  p.Title.TextStyle.Handler = style.handler(title)
  p.Title.Padding = vg.Points(style.FontSize / 2)

  p.X.Label.Text = xlabel
  p.X.Label.TextStyle.Font = style.face(style.FontSize)
  p.X.Label.TextStyle.Handler = style.handler(xlabel)
  p.X.Tick.Label.Font = style.face(style.XTickSize)

  p.Y.Label.Text = ylabel
  p.Y.Label.TextStyle.Font = style.face(style.FontSize)
  p.Y.Label.TextStyle.Handler = style.handler(ylabel)
  p.Y.Tick.Label.Font = style.face(style.YTickSize)

  return p
}

// panelPlot draws one series against its hour ticks.
func panelPlot(
  pn Panel,
  style Style,
) (
  *plot.Plot, error,
) {

  p := newPlot(pn.Title, pn.XLabel, pn.YLabel, style)

  xticks := []plot.Tick{}
  for i, v := range pn.Major {
    label := ""
    if i < len(pn.Labels) {
      label = pn.Labels[i]
    }
    xticks = append(xticks, plot.Tick{Value: v, Label: label})
  }
  for _, v := range pn.Minor {
    xticks = append(xticks, plot.Tick{Value: v})
  }
  p.X.Tick.Marker = plot.ConstantTicks(xticks)

  if len(pn.Major) > 0 {
    p.X.Min = pn.Major[0]
    p.X.Max = pn.Major[len(pn.Major)-1]
  }
  if p.X.Max <= p.X.Min {
    p.X.Max = p.X.Min + 1
  }

  if style.GridEnabled {
    g := plotter.NewGrid()
    g.Vertical.Color = majorGrid
    g.Horizontal.Color = majorGrid
    p.Add(g, &tickGrid{ticks: pn.Minor, style: draw.LineStyle{Color: minorGrid, Width: vg.Points(0.5)}})
  }

  if pn.Series != nil && pn.Series.Len() > 0 {
    line, err := plotter.NewLine(Decimate(pn.Series, style.MaxPoints))
    if err != nil {
      return nil, err
    }
    line.LineStyle.Color = black
    line.LineStyle.Width = traceWidth
    p.Add(line)
  }

  return p, nil
}

// tickGrid draws faint vertical lines at the minor tick positions; the
// stock grid skips unlabelled ticks.
type tickGrid struct {
  ticks []float64
  style draw.LineStyle
}

func (g *tickGrid) Plot(c draw.Canvas, plt *plot.Plot) {
  trX, _ := plt.Transforms(&c)
  for _, v := range g.ticks {
    if v < plt.X.Min || v > plt.X.Max {
      continue
    }
    x := trX(v)
    c.StrokeLine2(g.style, x, c.Min.Y, x, c.Max.Y)
  }
}

// Decimate keeps the minimum and maximum of each bucket so the envelope
// of a long series survives in far fewer points. maxPoints <= 0 or a short
// series returns xy unchanged.
func Decimate(xy plotter.XYer, maxPoints int) plotter.XYer {
  n := xy.Len()
  if maxPoints <= 0 || n <= maxPoints {
    return xy
  }

  buckets := maxPoints / 2
  if buckets < 1 {
    buckets = 1
  }
  size := (n + buckets - 1) / buckets

  out := make(plotter.XYs, 0, 2*buckets)
  for start := 0; start < n; start += size {
    end := min(start+size, n)
    lo, hi := start, start
    _, ylo := xy.XY(start)
    yhi := ylo
    for i := start + 1; i < end; i++ {
      _, y := xy.XY(i)
      if y < ylo {
        lo, ylo = i, y
      }
      if y > yhi {
        hi, yhi = i, y
      }
    }
    first, second := lo, hi
    if hi < lo {
      first, second = hi, lo
    }
    x, y := xy.XY(first)
    out = append(out, plotter.XY{X: x, Y: y})
    if second != first {
      x, y = xy.XY(second)
      out = append(out, plotter.XY{X: x, Y: y})
    }
  }
  return out
}
