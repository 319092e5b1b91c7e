package timing

import (
  "bufio"
  "fmt"
  "io"
  "math"
  "strconv"
  "strings"
)

const secondsPerDay = 86400

// MJD is a modified Julian date split so the fraction keeps sub-microsecond
// precision.
type MJD struct {
  Day  int64
  Frac float64
}

// ParseMJD reads a decimal MJD such as "57937.051737435824".
func ParseMJD(s string) (MJD, error) {
  whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
  day, err := strconv.ParseInt(whole, 10, 64)
  if err != nil {
    return MJD{}, fmt.Errorf("timing: MJD %q: %w", s, err)
  }
  var f float64
  if frac != "" {
    f, err = strconv.ParseFloat("0."+frac, 64)
    if err != nil {
      return MJD{}, fmt.Errorf("timing: MJD %q: %w", s, err)
    }
  }
  if day < 0 || strings.HasPrefix(whole, "-") {
    return MJD{}, fmt.Errorf("timing: MJD %q is negative", s)
  }
  return MJD{Day: day, Frac: f}, nil
}

// Float is the date as a single number, for plotting.
func (m MJD) Float() float64 { return float64(m.Day) + m.Frac }

// Sub returns m - o in seconds.
func (m MJD) Sub(o MJD) float64 {
  return float64(m.Day-o.Day)*secondsPerDay + (m.Frac-o.Frac)*secondsPerDay
}

// TOA is one time of arrival.
type TOA struct {
  Name    string
  FreqMHz float64
  MJD     MJD
  ErrorUS float64
  Site    string
  Flags   map[string]string
}

// ParseTim reads tempo2 "FORMAT 1" arrival times:
//
//  name freq mjd error site [-flag value ...]
func ParseTim(r io.Reader) ([]TOA, error) {

  var toas []TOA
  sc := bufio.NewScanner(r)

  for n := 1; sc.Scan(); n++ {
    line := sc.Text()
    fields := strings.Fields(line)
    if len(fields) == 0 || isComment(line) {
      continue
    }

    switch strings.ToUpper(fields[0]) {
    case "FORMAT", "MODE":
      continue
    case "END":
      return toas, nil
    case "JUMP", "TIME", "EFAC", "EQUAD", "INCLUDE", "SKIP", "NOSKIP", "PHASE", "TRACK":
      return nil, fmt.Errorf("timing: tim line %d: command %s is not supported", n, fields[0])
    }

    toa, err := parseTOA(fields)
    if err != nil {
      return nil, fmt.Errorf("timing: tim line %d: %w", n, err)
    }
    toas = append(toas, toa)
  }
  if err := sc.Err(); err != nil {
    return nil, fmt.Errorf("timing: read tim: %w", err)
  }

  return toas, nil
}

func parseTOA(fields []string) (TOA, error) {
  if len(fields) < 5 {
    return TOA{}, fmt.Errorf("want at least 5 fields, got %d", len(fields))
  }

  freq, err := strconv.ParseFloat(fields[1], 64)
  if err != nil {
    return TOA{}, fmt.Errorf("frequency %q: %w", fields[1], err)
  }
  mjd, err := ParseMJD(fields[2])
  if err != nil {
    return TOA{}, err
  }
  errUS, err := strconv.ParseFloat(fields[3], 64)
  if err != nil {
    return TOA{}, fmt.Errorf("error %q: %w", fields[3], err)
  }
  if errUS <= 0 || math.IsNaN(errUS) {
    return TOA{}, fmt.Errorf("error %q must be positive", fields[3])
  }

  toa := TOA{
    Name:    fields[0],
    FreqMHz: freq,
    MJD:     mjd,
    ErrorUS: errUS,
    Site:    fields[4],
    Flags:   map[string]string{},
  }
  rest := fields[5:]
  for i := 0; i < len(rest); i++ {
    if !strings.HasPrefix(rest[i], "-") {
      continue
    }
    key := strings.TrimPrefix(rest[i], "-")
    if i+1 < len(rest) {
      toa.Flags[key] = rest[i+1]
      i++
    } else {
      toa.Flags[key] = ""
    }
  }

  return toa, nil
}
