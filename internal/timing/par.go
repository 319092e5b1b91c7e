// Package timing computes pulsar timing residuals for a spin-down model and
// refits it to times of arrival by weighted least squares.
package timing

import (
  "bufio"
  "fmt"
  "io"
  "strconv"
  "strings"
)

// Param is one line of a parameter file.
type Param struct {
  Name        string
  Value       string
  Fit         bool
  Uncertainty float64

  line    string
  changed bool
}

// Model is a parsed parameter file. Lines keep their order.
type Model struct {
  params []*Param
  index  map[string]*Param
}

var fortranExp = strings.NewReplacer("D", "E", "d", "e")

func parseFloat(s string) (float64, error) {
  return strconv.ParseFloat(fortranExp.Replace(s), 64)
}

// ParsePar reads a tempo-style parameter file: NAME VALUE [FIT [UNCERTAINTY]].
func ParsePar(r io.Reader) (*Model, error) {

  m := &Model{index: map[string]*Param{}}
  sc := bufio.NewScanner(r)

  for n := 1; sc.Scan(); n++ {
    line := sc.Text()
    fields := strings.Fields(line)
    if len(fields) == 0 || isComment(line) {
      continue
    }

    p := &Param{Name: strings.ToUpper(fields[0]), line: line}
    if len(fields) > 1 {
      p.Value = fields[1]
    }
    if len(fields) > 2 {
      p.Fit = fields[2] == "1"
    }
    if len(fields) > 3 {
      u, err := parseFloat(fields[3])
      if err != nil {
        return nil, fmt.Errorf("timing: par line %d: uncertainty %q: %w", n, fields[3], err)
      }
      p.Uncertainty = u
    }

    if _, dup := m.index[p.Name]; !dup {
      m.index[p.Name] = p
    }
    m.params = append(m.params, p)
  }
  if err := sc.Err(); err != nil {
    return nil, fmt.Errorf("timing: read par: %w", err)
  }

  return m, nil
}

func isComment(line string) bool {
  t := strings.TrimSpace(line)
  return strings.HasPrefix(t, "#") || strings.HasPrefix(t, "C ")
}

// Param looks a parameter up by name.
func (m *Model) Param(name string) (*Param, bool) {
  p, ok := m.index[strings.ToUpper(name)]
  return p, ok
}

// Float returns a numeric parameter, or def when it is absent.
func (m *Model) Float(name string, def float64) (float64, error) {
  p, ok := m.Param(name)
  if !ok {
    return def, nil
  }
  v, err := parseFloat(p.Value)
  if err != nil {
    return 0, fmt.Errorf("timing: %s %q: %w", p.Name, p.Value, err)
  }
  return v, nil
}

// SetFloat stores a fitted value, adding the parameter if needed.
func (m *Model) SetFloat(name string, v, uncertainty float64) {
  name = strings.ToUpper(name)
  p, ok := m.index[name]
  if !ok {
    p = &Param{Name: name}
    m.index[name] = p
    m.params = append(m.params, p)
  }
  p.Value = strconv.FormatFloat(v, 'g', -1, 64)
  p.Fit = true
  p.Uncertainty = uncertainty
  p.changed = true
}

// PSR is the pulsar name, from PSRJ, PSRB or PSR.
func (m *Model) PSR() string {
  for _, k := range []string{"PSRJ", "PSRB", "PSR"} {
    if p, ok := m.index[k]; ok && p.Value != "" {
      return p.Value
    }
  }
  return "Unknown PSR"
}

// Clone returns an independent copy.
func (m *Model) Clone() *Model {
  c := &Model{index: map[string]*Param{}}
  for _, p := range m.params {
    cp := *p
    if _, dup := c.index[cp.Name]; !dup {
      c.index[cp.Name] = &cp
    }
    c.params = append(c.params, &cp)
  }
  return c
}

// WritePar writes m back out. Untouched lines are copied verbatim.
func WritePar(w io.Writer, m *Model) error {
  bw := bufio.NewWriter(w)
  for _, p := range m.params {
    line := p.line
    if p.changed || line == "" {
      fit := 0
      if p.Fit {
        fit = 1
      }
      line = fmt.Sprintf("%-15s %25s %d %s", p.Name, p.Value, fit, strconv.FormatFloat(p.Uncertainty, 'g', 6, 64))
    }
    if _, err := fmt.Fprintln(bw, line); err != nil {
      return err
    }
  }
  return bw.Flush()
}
