// Package config loads the settings shared by the commands.
package config

import (
  "errors"
  "fmt"
  "os"
  "path/filepath"
  "reflect"
  "strconv"
  "strings"
  "time"
  "unicode"

  "gopkg.in/yaml.v3"

  "github.com/HamletTheHamster/pulsar-plots/internal/axis"
  "github.com/HamletTheHamster/pulsar-plots/internal/compare"
  "github.com/HamletTheHamster/pulsar-plots/internal/remote"
  "github.com/HamletTheHamster/pulsar-plots/internal/render"
  "github.com/HamletTheHamster/pulsar-plots/internal/timing"
)

const defaultConfigPathEnv = "CONFIG_FILE"

// Config is everything the commands can be told.
type Config struct {
  SamplingPeriod float64 `yaml:"sampling_period"`
  PlotsDir       string  `yaml:"plots_dir"`
  RawDir         string  `yaml:"raw_dir"`
  WorkDir        string  `yaml:"work_dir"`
  Format         string  `yaml:"format"`
  Display        bool    `yaml:"display" env:"PLOT_DISPLAY"`

  LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
  LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`

  Remote remote.Config `yaml:"remote"`
  Style  render.Style  `yaml:"style"`
  Policy axis.Policy   `yaml:"policy"`
  Timing Timing        `yaml:"timing"`
}

// Timing configures the residual and fitting run.
type Timing struct {
  Par        string   `yaml:"par"`
  Tim        string   `yaml:"tim"`
  Results    string   `yaml:"results"`
  MinSNR     float64  `yaml:"min_snr"`
  MaxErrorUS float64  `yaml:"max_error_us"`
  FitParams  []string `yaml:"fit_params"`
  OutDir     string   `yaml:"out_dir"`
  WritePar   string   `yaml:"write_par"`
}

// Default is the configuration used when nothing overrides it.
func Default() Config {
  return Config{
    SamplingPeriod: 2e-3,
    PlotsDir:       "Plots",
    RawDir:         ".",
    Format:         "pdf",
    LogLevel:       "info",
    LogFormat:      "console",
    Remote: remote.Config{
      Host:           "ettus.astro.gla.ac.uk",
      Port:           22,
      User:           "astro",
      Dir:            "/home/astro/pulsartelescope/data",
      KnownHostsFile: "~/.ssh/known_hosts",
      Timeout:        30 * time.Second,
    },
    Style:  render.DefaultStyle(),
    Policy: axis.DefaultPolicy(),
    Timing: Timing{
      Par:       "B0329+54.par",
      Tim:       "TEMPO_TOAs.txt",
      FitParams: append([]string(nil), timing.DefaultFit...),
      OutDir:    ".",
    },
  }
}

// Load starts from Default, applies the YAML file at path (or CONFIG_FILE
// when path is empty) and then environment overrides.
func Load(path string) (Config, error) {
  cfg := Default()
  if path == "" {
    path = os.Getenv(defaultConfigPathEnv)
  }
  if path != "" {
    if err := loadFromFile(path, &cfg); err != nil {
      return cfg, err
    }
  }
  if err := populateFromEnv(reflect.ValueOf(&cfg).Elem(), ""); err != nil {
    return cfg, err
  }

  var err error
  if cfg.Remote.KnownHostsFile, err = expandHome(cfg.Remote.KnownHostsFile); err != nil {
    return cfg, err
  }
  if cfg.Remote.KeyFile, err = expandHome(cfg.Remote.KeyFile); err != nil {
    return cfg, err
  }

  return cfg, cfg.Validate()
}

// Validate rejects settings no run can use.
func (c Config) Validate() error {
  var errs []error
  if c.SamplingPeriod <= 0 {
    errs = append(errs, fmt.Errorf("config: sampling period %g must be positive", c.SamplingPeriod))
  }
  if c.PlotsDir == "" {
    errs = append(errs, errors.New("config: plots dir is empty"))
  }
  switch c.Format {
  case "pdf", "png", "svg", "eps":
  default:
    errs = append(errs, fmt.Errorf("config: unknown format %q", c.Format))
  }
  switch c.LogFormat {
  case "console", "json":
  default:
    errs = append(errs, fmt.Errorf("config: unknown log format %q", c.LogFormat))
  }
  if err := c.Policy.Validate(); err != nil {
    errs = append(errs, fmt.Errorf("config: policy: %w", err))
  }
  return errors.Join(errs...)
}

// Compare is the part of c a plotting run needs.
func (c Config) Compare() compare.Options {
  return compare.Options{
    SamplingPeriod: c.SamplingPeriod,
    PlotsDir:       c.PlotsDir,
    RawDir:         c.RawDir,
    WorkDir:        c.WorkDir,
    Format:         c.Format,
    Policy:         c.Policy,
  }
}

func loadFromFile(path string, target interface{}) error {
  data, err := os.ReadFile(path)
  if err != nil {
    return fmt.Errorf("config: read file: %w", err)
  }

  if err := yaml.Unmarshal(data, target); err != nil {
    return fmt.Errorf("config: decode yaml: %w", err)
  }

  return nil
}

func expandHome(path string) (string, error) {
  if path != "~" && !strings.HasPrefix(path, "~/") {
    return path, nil
  }
  home, err := os.UserHomeDir()
  if err != nil {
    return "", fmt.Errorf("config: expand %s: %w", path, err)
  }
  return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func populateFromEnv(v reflect.Value, prefix string) error {
  t := v.Type()
  for i := 0; i < v.NumField(); i++ {
    fieldVal := v.Field(i)
    fieldType := t.Field(i)

    if !fieldVal.CanSet() {
      continue
    }

    rawKey := fieldType.Tag.Get("env")
    if rawKey == "-" {
      continue
    }

    var envKey string
    if rawKey != "" {
      envKey = normalizeKey("", rawKey)
    } else {
      envKey = normalizeKey(prefix, snake(fieldType.Name))
    }

    if fieldVal.Kind() == reflect.Struct {
      if err := populateFromEnv(fieldVal, envKey); err != nil {
        return err
      }
      continue
    }

    if val, ok := os.LookupEnv(envKey); ok {
      if err := assign(fieldVal, val); err != nil {
        return fmt.Errorf("config: parse %s: %w", envKey, err)
      }
    }
  }
  return nil
}

func normalizeKey(prefix, key string) string {
  key = strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
  if prefix == "" {
    return key
  }
  return fmt.Sprintf("%s_%s", prefix, key)
}

// snake splits a Go field name at word boundaries: KnownHostsFile becomes
// Known_Hosts_File and XTickSize becomes X_Tick_Size.
func snake(name string) string {
  r := []rune(name)
  var b strings.Builder
  for i, c := range r {
    if i > 0 && unicode.IsUpper(c) {
      prevLower := unicode.IsLower(r[i-1]) || unicode.IsDigit(r[i-1])
      nextLower := i+1 < len(r) && unicode.IsLower(r[i+1])
      if prevLower || (unicode.IsUpper(r[i-1]) && nextLower) {
        b.WriteByte('_')
      }
    }
    b.WriteRune(c)
  }
  return b.String()
}

var durationType = reflect.TypeOf(time.Duration(0))

func assign(field reflect.Value, value string) error {
  if field.Type() == durationType {
    d, err := time.ParseDuration(value)
    if err != nil {
      return err
    }
    field.SetInt(int64(d))
    return nil
  }

  switch field.Kind() {
  case reflect.String:
    field.SetString(value)
  case reflect.Bool:
    parsed, err := strconv.ParseBool(value)
    if err != nil {
      return err
    }
    field.SetBool(parsed)
  case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
    parsed, err := strconv.ParseInt(value, 10, field.Type().Bits())
    if err != nil {
      return err
    }
    field.SetInt(parsed)
  case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
    parsed, err := strconv.ParseUint(value, 10, field.Type().Bits())
    if err != nil {
      return err
    }
    field.SetUint(parsed)
  case reflect.Float32, reflect.Float64:
    parsed, err := strconv.ParseFloat(value, field.Type().Bits())
    if err != nil {
      return err
    }
    field.SetFloat(parsed)
  case reflect.Slice:
    parts := SplitList(value)
    s := reflect.MakeSlice(field.Type(), len(parts), len(parts))
    for i, p := range parts {
      if err := assign(s.Index(i), p); err != nil {
        return err
      }
    }
    field.Set(s)
  default:
    return fmt.Errorf("unsupported field type %s", field.Type().String())
  }
  return nil
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(value string) []string {
  var out []string
  for _, p := range strings.Split(value, ",") {
    if p = strings.TrimSpace(p); p != "" {
      out = append(out, p)
    }
  }
  return out
}
