// Package render draws power series and timing residuals with gonum/plot,
// or hands them to gnuplot for interactive inspection.
package render

import (
  "strings"

  "gonum.org/v1/plot/font"
  "gonum.org/v1/plot/text"
  "gonum.org/v1/plot/vg"
)

// Size is a figure size in inches.
type Size struct {
  Width  float64 `yaml:"width"`
  Height float64 `yaml:"height"`
}

// Style is passed to every render call; nothing is configured globally.
type Style struct {
  XTickSize   float64 `yaml:"xtick_size"`
  YTickSize   float64 `yaml:"ytick_size"`
  FontSize    float64 `yaml:"font_size"`
  FontFamily  string  `yaml:"font_family"`
  MathFontSet string  `yaml:"math_font_set"`
  GridEnabled bool    `yaml:"grid_enabled"`
  FigureSize  Size    `yaml:"figure_size"`

  // MaxPoints caps the points drawn per trace, 0 draws every sample.
  MaxPoints int `yaml:"max_points"`
}

// DefaultStyle makes everything larger for readability and matches the
// serif fonts of the thesis.
func DefaultStyle() Style {
  return Style{
    XTickSize:   12,
    YTickSize:   12,
    FontSize:    14,
    FontFamily:  "STIXGeneral",
    MathFontSet: "stix",
    GridEnabled: true,
    FigureSize:  Size{Width: 10, Height: 10},
  }
}

// fallbackFont is used for families gonum/plot has no faces for.
var fallbackFont = font.Font{Typeface: "Liberation", Variant: "Serif"}

// face resolves FontFamily against the font cache at the given size.
// "Liberation Sans" style names select a variant.
func (s Style) face(size float64) font.Font {
  fnt := fallbackFont
  if fam := strings.TrimSpace(s.FontFamily); fam != "" {
    typeface, variant, _ := strings.Cut(fam, " ")
    want := font.Font{Typeface: font.Typeface(typeface), Variant: font.Variant(variant)}
    if font.DefaultCache.Has(want) {
      fnt = want
    }
  }
  fnt.Size = vg.Points(size)
  return fnt
}

// handler picks the LaTeX handler for strings with math when a math font
// set is configured.
func (s Style) handler(str string) text.Handler {
  if s.MathFontSet != "" && strings.Contains(str, "$") {
    return text.Latex{Fonts: font.DefaultCache}
  }
  return text.Plain{Fonts: font.DefaultCache}
}

func (s Style) size() (vg.Length, vg.Length) {
  w, h := s.FigureSize.Width, s.FigureSize.Height
  if w <= 0 {
    w = 10
  }
  if h <= 0 {
    h = 10
  }
  return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}
