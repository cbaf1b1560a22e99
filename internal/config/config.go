// Package config holds the run configuration shared by the injtimes and
// roqweights tools. Every field is a pointer so a file only needs to carry
// the values it overrides; the Get* methods fill in the defaults.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/roq"
)

// maxFileSize bounds config files.
const maxFileSize = 1 * 1024 * 1024

// Config is the root of a config file. Either section may be omitted.
type Config struct {
	InjTimes *InjTimesConfig `json:"injtimes,omitempty" yaml:"injtimes,omitempty"`
	ROQ      *ROQConfig      `json:"roq,omitempty" yaml:"roq,omitempty"`
}

// InjTimesConfig configures injection-time generation.
type InjTimesConfig struct {
	IFOs      []string `json:"ifos,omitempty" yaml:"ifos,omitempty"`
	SegFiles  []string `json:"segfiles,omitempty" yaml:"segfiles,omitempty"`
	VetoFiles []string `json:"vetofiles,omitempty" yaml:"vetofiles,omitempty"`

	Length    *int64  `json:"length,omitempty" yaml:"length,omitempty"`         // signal segment length, seconds
	PSDLength *int64  `json:"psd_length,omitempty" yaml:"psd_length,omitempty"` // seconds needed for the PSD
	NInj      *int    `json:"ninj,omitempty" yaml:"ninj,omitempty"`
	OutFolder *string `json:"outfolder,omitempty" yaml:"outfolder,omitempty"`
	Reference *string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Seed      *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	Where     *string `json:"where,omitempty" yaml:"where,omitempty"` // trigger placement: every or middle
	Limit     *int    `json:"limit,omitempty" yaml:"limit,omitempty"` // max times per coincidence file, 0 keeps all

	NoDouble   *bool `json:"nodouble,omitempty" yaml:"nodouble,omitempty"`
	NoTriple   *bool `json:"notriple,omitempty" yaml:"notriple,omitempty"`
	Timeslides *bool `json:"timeslides,omitempty" yaml:"timeslides,omitempty"`
	Plot       *bool `json:"plot,omitempty" yaml:"plot,omitempty"`
	Check      *bool `json:"check,omitempty" yaml:"check,omitempty"`
	Unvetoed   *bool `json:"unvetoed,omitempty" yaml:"unvetoed,omitempty"`
}

// ROQConfig configures the ROQ weight computation.
type ROQConfig struct {
	IFOs      []string `json:"ifos,omitempty" yaml:"ifos,omitempty"`
	DataFiles []string `json:"data_files,omitempty" yaml:"data_files,omitempty"`
	PSDFiles  []string `json:"psd_files,omitempty" yaml:"psd_files,omitempty"`
	BasisSet  *string  `json:"basis_set,omitempty" yaml:"basis_set,omitempty"`
	InvV      *string  `json:"invv,omitempty" yaml:"invv,omitempty"`

	Seglen    *float64 `json:"seglen,omitempty" yaml:"seglen,omitempty"`
	TimePrior *float64 `json:"time_prior,omitempty" yaml:"time_prior,omitempty"`
	FLow      *float64 `json:"f_low,omitempty" yaml:"f_low,omitempty"`
	DeltaTc   *float64 `json:"delta_tc,omitempty" yaml:"delta_tc,omitempty"`
	BasisRows *int     `json:"basis_rows,omitempty" yaml:"basis_rows,omitempty"`
	BasisCols *int     `json:"basis_cols,omitempty" yaml:"basis_cols,omitempty"`
	OutDir    *string  `json:"outdir,omitempty" yaml:"outdir,omitempty"`
}

// Load reads a .json, .yaml or .yml config file. Fields omitted from the
// file keep their defaults.
func Load(fsys fsutil.FileSystem, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	f, err := fsys.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("config file too large: more than %d bytes", maxFileSize)
	}

	cfg := &Config{}
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks both sections.
func (c *Config) Validate() error {
	if c.InjTimes != nil {
		if err := c.InjTimes.Validate(); err != nil {
			return fmt.Errorf("injtimes: %w", err)
		}
	}
	if c.ROQ != nil {
		if err := c.ROQ.Validate(); err != nil {
			return fmt.Errorf("roq: %w", err)
		}
	}
	return nil
}

// GetInjTimes returns the injtimes section, never nil.
func (c *Config) GetInjTimes() *InjTimesConfig {
	if c == nil || c.InjTimes == nil {
		return &InjTimesConfig{}
	}
	return c.InjTimes
}

// GetROQ returns the roq section, never nil.
func (c *Config) GetROQ() *ROQConfig {
	if c == nil || c.ROQ == nil {
		return &ROQConfig{}
	}
	return c.ROQ
}

// Validate checks the injtimes values that are set.
func (c *InjTimesConfig) Validate() error {
	if len(c.SegFiles) > 0 && len(c.SegFiles) != len(c.IFOs) {
		return fmt.Errorf("%d segment files for %d ifos", len(c.SegFiles), len(c.IFOs))
	}
	if len(c.VetoFiles) > 0 && len(c.VetoFiles) != len(c.IFOs) {
		return fmt.Errorf("%d veto files for %d ifos", len(c.VetoFiles), len(c.IFOs))
	}
	if c.Length != nil && *c.Length < 1 {
		return fmt.Errorf("length must be at least 1, got %d", *c.Length)
	}
	if c.PSDLength != nil && *c.PSDLength < 1 {
		return fmt.Errorf("psd_length must be at least 1, got %d", *c.PSDLength)
	}
	if c.NInj != nil && *c.NInj < 0 {
		return fmt.Errorf("ninj must be non-negative, got %d", *c.NInj)
	}
	if c.Limit != nil && *c.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", *c.Limit)
	}
	return nil
}

// GetLength returns the signal segment length or the default.
func (c *InjTimesConfig) GetLength() int64 {
	if c.Length == nil {
		return 45
	}
	return *c.Length
}

// GetPSDLength returns the PSD length or the default.
func (c *InjTimesConfig) GetPSDLength() int64 {
	if c.PSDLength == nil {
		return 1024
	}
	return *c.PSDLength
}

// MinLen is the shortest usable segment: long enough for both the signal and
// the PSD estimate.
func (c *InjTimesConfig) MinLen() int64 {
	return max(c.GetPSDLength(), c.GetLength())
}

// GetNInj returns the number of time-slid injections or the default.
func (c *InjTimesConfig) GetNInj() int {
	if c.NInj == nil {
		return 1000
	}
	return *c.NInj
}

// GetOutFolder returns the output folder or the default.
func (c *InjTimesConfig) GetOutFolder() string {
	if c.OutFolder == nil || *c.OutFolder == "" {
		return "."
	}
	return *c.OutFolder
}

// GetReference returns the reference detector for time slides.
func (c *InjTimesConfig) GetReference() string {
	if c.Reference == nil || *c.Reference == "" {
		return "H1"
	}
	return *c.Reference
}

// GetSeed returns the sampler seed; 0 means seed from the clock.
func (c *InjTimesConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}

// GetWhere returns the trigger placement name for coincidence times.
func (c *InjTimesConfig) GetWhere() string {
	if c.Where == nil || *c.Where == "" {
		return "every"
	}
	return *c.Where
}

// GetLimit returns the cap on times per coincidence file; 0 keeps all.
func (c *InjTimesConfig) GetLimit() int {
	if c.Limit == nil {
		return 0
	}
	return *c.Limit
}

func getBool(b *bool) bool { return b != nil && *b }

// GetNoDouble reports whether doubles are skipped.
func (c *InjTimesConfig) GetNoDouble() bool { return getBool(c.NoDouble) }

// GetNoTriple reports whether the triple is skipped.
func (c *InjTimesConfig) GetNoTriple() bool { return getBool(c.NoTriple) }

// GetTimeslides reports whether time-slide mode is on.
func (c *InjTimesConfig) GetTimeslides() bool { return getBool(c.Timeslides) }

// GetPlot reports whether duration plots are written.
func (c *InjTimesConfig) GetPlot() bool { return getBool(c.Plot) }

// GetCheck reports whether time-slid times are checked against the segments.
func (c *InjTimesConfig) GetCheck() bool { return getBool(c.Check) }

// GetUnvetoed reports whether unvetoed segment lists are written.
func (c *InjTimesConfig) GetUnvetoed() bool { return getBool(c.Unvetoed) }

// Validate checks the roq values that are set.
func (c *ROQConfig) Validate() error {
	if len(c.DataFiles) != len(c.PSDFiles) {
		return fmt.Errorf("%d data files but %d psd files", len(c.DataFiles), len(c.PSDFiles))
	}
	if len(c.IFOs) > 0 && len(c.DataFiles) > 0 && len(c.IFOs) != len(c.DataFiles) {
		return fmt.Errorf("%d data files for %d ifos", len(c.DataFiles), len(c.IFOs))
	}
	if c.Seglen != nil && *c.Seglen <= 0 {
		return fmt.Errorf("seglen must be positive, got %g", *c.Seglen)
	}
	if c.TimePrior != nil && *c.TimePrior < 0 {
		return fmt.Errorf("time_prior must be non-negative, got %g", *c.TimePrior)
	}
	if c.FLow != nil && *c.FLow < 0 {
		return fmt.Errorf("f_low must be non-negative, got %g", *c.FLow)
	}
	if c.DeltaTc != nil && *c.DeltaTc <= 0 {
		return fmt.Errorf("delta_tc must be positive, got %g", *c.DeltaTc)
	}
	if c.BasisRows != nil && *c.BasisRows < 1 {
		return fmt.Errorf("basis_rows must be positive, got %d", *c.BasisRows)
	}
	if c.BasisCols != nil && *c.BasisCols < 1 {
		return fmt.Errorf("basis_cols must be positive, got %d", *c.BasisCols)
	}
	return nil
}

func getFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// GetSeglen returns the segment length in seconds.
func (c *ROQConfig) GetSeglen() float64 { return getFloat(c.Seglen, 0) }

// GetTimePrior returns the half-width of the time prior in seconds.
func (c *ROQConfig) GetTimePrior() float64 { return getFloat(c.TimePrior, 0) }

// GetFLow returns the low frequency cutoff in Hz.
func (c *ROQConfig) GetFLow() float64 { return getFloat(c.FLow, 0) }

// GetDeltaTc returns the tc grid spacing in seconds.
func (c *ROQConfig) GetDeltaTc() float64 { return getFloat(c.DeltaTc, 0) }

// GetBasisRows returns the number of frequency samples in the basis.
func (c *ROQConfig) GetBasisRows() int {
	if c.BasisRows == nil {
		return roq.DefaultBasisRows
	}
	return *c.BasisRows
}

// GetBasisCols returns the number of basis elements.
func (c *ROQConfig) GetBasisCols() int {
	if c.BasisCols == nil {
		return roq.DefaultBasisCols
	}
	return *c.BasisCols
}

// GetOutDir returns the directory weight files are written to.
func (c *ROQConfig) GetOutDir() string {
	if c.OutDir == nil || *c.OutDir == "" {
		return "."
	}
	return *c.OutDir
}

// GetBasisSet returns the reduced basis file path.
func (c *ROQConfig) GetBasisSet() string {
	if c.BasisSet == nil {
		return ""
	}
	return *c.BasisSet
}

// GetInvV returns the inverse Vandermonde file path.
func (c *ROQConfig) GetInvV() string {
	if c.InvV == nil {
		return ""
	}
	return *c.InvV
}
