package render

import (
  "errors"
  "fmt"
  "os"
  "path/filepath"
  "strings"

  "gonum.org/v1/plot"
  "gonum.org/v1/plot/text"
  "gonum.org/v1/plot/vg"
  "gonum.org/v1/plot/vg/draw"
)

// File writes figures to disk; the format follows the path's extension
// (pdf, png, svg, ...).
type File struct {
  Style Style
}

// Render draws the panels one above the other, with the figure title on
// top, and writes the result to path. The parent directory is created.
func (f File) Render(
  fig Figure,
  path string,
) error {

  if len(fig.Panels) == 0 {
    return errors.New("render: figure has no panels")
  }

  plots := make([][]*plot.Plot, len(fig.Panels))
  for i, pn := range fig.Panels {
    p, err := panelPlot(pn, f.Style)
    if err != nil {
      return fmt.Errorf("render: panel %d: %w", i, err)
    }
    plots[i] = []*plot.Plot{p}
  }

  w, h := f.Style.size()
  c, err := newCanvas(w, h, path)
  if err != nil {
    return err
  }

  dc := draw.New(c)
  if fig.Title != "" {
    dc = f.suptitle(dc, fig.Title)
  }

  tiles := draw.Tiles{
    Rows:      len(fig.Panels),
    Cols:      1,
    PadY:      vg.Points(f.Style.FontSize * 3),
    PadTop:    vg.Points(f.Style.FontSize / 2),
    PadBottom: vg.Points(f.Style.FontSize / 2),
    PadLeft:   vg.Points(f.Style.FontSize / 2),
    PadRight:  vg.Points(f.Style.FontSize),
  }
  canvases := plot.Align(plots, tiles, dc)
  for i := range plots {
    plots[i][0].Draw(canvases[i][0])
  }

  return save(c, path)
}

// suptitle writes the figure title centred along the top edge and returns
// the canvas left below it.
func (f File) suptitle(
  dc draw.Canvas,
  title string,
) (
  draw.Canvas,
) {

  sty := text.Style{
    Color:   black,
    Font:    f.Style.face(f.Style.FontSize * 1.2),
    XAlign:  text.XCenter,
    YAlign:  text.YTop,
    Handler: f.Style.handler(title),
  }
  pad := vg.Points(f.Style.FontSize / 2)
  pt := vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - pad}
  dc.FillText(sty, pt, title)

  return draw.Crop(dc, 0, 0, 0, -(sty.Height(title) + 2*pad))
}

func newCanvas(
  w, h vg.Length,
  path string,
) (
  vg.CanvasWriterTo, error,
) {
  format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
  c, err := draw.NewFormattedCanvas(w, h, format)
  if err != nil {
    return nil, fmt.Errorf("render: %s: %w", path, err)
  }
  return c, nil
}

func save(
  c vg.CanvasWriterTo,
  path string,
) error {

  // Make the output folder if it doesn't already exist
  if dir := filepath.Dir(path); dir != "" {
    if err := os.MkdirAll(dir, 0755); err != nil {
      return fmt.Errorf("render: %w", err)
    }
  }

  out, err := os.Create(path)
  if err != nil {
    return fmt.Errorf("render: %w", err)
  }
  if _, err := c.WriteTo(out); err != nil {
    out.Close()
    return fmt.Errorf("render: write %s: %w", path, err)
  }
  return out.Close()
}
