package timing

import (
  "bufio"
  "encoding/csv"
  "fmt"
  "io"
  "path/filepath"
  "sort"
  "strconv"
  "strings"

  "gonum.org/v1/gonum/floats"
  "gonum.org/v1/gonum/stat"
)

// ReadSNR reads an observation,snr CSV. The first row is a header.
func ReadSNR(
  rs io.ReadSeeker,
) (
  map[string]float64, error,
) {

  rows, err := readCSV(rs)
  if err != nil {
    return nil, fmt.Errorf("timing: read snr: %w", err)
  }

  snr := make(map[string]float64, len(rows))
  for i, row := range rows {
    if len(row) < 2 {
      return nil, fmt.Errorf("timing: snr row %d: want 2 columns, got %d", i+2, len(row))
    }
    v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
    if err != nil {
      return nil, fmt.Errorf("timing: snr row %d: %w", i+2, err)
    }
    snr[strings.TrimSpace(row[0])] = v
  }

  return snr, nil
}

func readCSV(
  rs io.ReadSeeker,
) (
  [][]string, error,
) {
  // Skip first row (line)
  row1, err := bufio.NewReader(rs).ReadSlice('\n')
  if err == io.EOF {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  _, err = rs.Seek(int64(len(row1)), io.SeekStart)
  if err != nil {
    return nil, err
  }

  // Read remaining rows
  r := csv.NewReader(rs)
  r.FieldsPerRecord = -1
  return r.ReadAll()
}

// FilterSNR keeps TOAs whose observation has an S/N of at least min. A TOA
// belongs to the observation with the longest name its file name starts
// with; TOAs with no observation are dropped.
func FilterSNR(
  toas []TOA,
  snr map[string]float64,
  min float64,
) (
  []TOA,
) {

  obs := make([]string, 0, len(snr))
  for k := range snr {
    obs = append(obs, k)
  }
  sort.Slice(obs, func(i, j int) bool { return len(obs[i]) > len(obs[j]) })

  var kept []TOA
  for _, t := range toas {
    base := filepath.Base(t.Name)
    for _, o := range obs {
      if strings.HasPrefix(base, o) {
        if snr[o] >= min {
          kept = append(kept, t)
        }
        break
      }
    }
  }
  return kept
}

// FilterError keeps TOAs with an uncertainty below maxUS. Zero keeps all.
func FilterError(toas []TOA, maxUS float64) []TOA {
  if maxUS <= 0 {
    return toas
  }
  var kept []TOA
  for _, t := range toas {
    if t.ErrorUS < maxUS {
      kept = append(kept, t)
    }
  }
  return kept
}

// Summary describes a TOA set.
type Summary struct {
  Count     int
  FirstMJD  float64
  LastMJD   float64
  SpanDays  float64
  MeanErrUS float64
  MinErrUS  float64
  MaxErrUS  float64
  Sites     []string
  FreqsMHz  []float64
}

// Summarize fills a Summary. It is zero for no TOAs.
func Summarize(toas []TOA) Summary {
  if len(toas) == 0 {
    return Summary{}
  }

  mjd := make([]float64, len(toas))
  errs := make([]float64, len(toas))
  sites := map[string]bool{}
  freqs := map[float64]bool{}
  for i, t := range toas {
    mjd[i] = t.MJD.Float()
    errs[i] = t.ErrorUS
    sites[t.Site] = true
    freqs[t.FreqMHz] = true
  }

  s := Summary{
    Count:     len(toas),
    FirstMJD:  floats.Min(mjd),
    LastMJD:   floats.Max(mjd),
    MeanErrUS: stat.Mean(errs, nil),
    MinErrUS:  floats.Min(errs),
    MaxErrUS:  floats.Max(errs),
  }
  s.SpanDays = s.LastMJD - s.FirstMJD
  for k := range sites {
    s.Sites = append(s.Sites, k)
  }
  sort.Strings(s.Sites)
  for k := range freqs {
    s.FreqsMHz = append(s.FreqsMHz, k)
  }
  sort.Float64s(s.FreqsMHz)

  return s
}
