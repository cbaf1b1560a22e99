// Command roqweights computes ROQ weights for the frequency-domain data of
// one or more detectors and writes weights_<IFO>.dat plus
// Num_tc_sub_domains.dat.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gwprep/gwprep/internal/config"
	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/manifest"
	"github.com/gwprep/gwprep/internal/monitoring"
	"github.com/gwprep/gwprep/internal/roq"
	"github.com/gwprep/gwprep/internal/security"
	"github.com/gwprep/gwprep/internal/timeutil"
	"github.com/gwprep/gwprep/internal/version"
)

// multiFlag collects every occurrence of a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

type options struct {
	cfg         *config.ROQConfig
	debug       bool
	showVersion bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*options, error) {
	var data, psd, ifos multiFlag
	fs.Var(&data, "data", "Frequency-domain data file (repeat once per detector)")
	fs.Var(&psd, "psd", "PSD file (repeat once per detector)")
	fs.Var(&ifos, "ifo", "Detector name (repeat, same order as -data)")
	configPath := fs.String("config", "", "JSON or YAML run configuration (flags override it)")
	timePrior := fs.Float64("time-prior", 0, "Half-width of the time prior in seconds")
	seglen := fs.Float64("seglen", 0, "Segment length in seconds")
	fLow := fs.Float64("flow", 0, "Low frequency cutoff in Hz")
	deltaTc := fs.Float64("delta-tc", 0, "Width of a tc subdomain in seconds")
	basisSet := fs.String("basis-set", "", "Reduced basis matrix (raw complex128)")
	invV := fs.String("invV", "", "Inverse Vandermonde matrix (raw complex128)")
	basisRows := fs.Int("basis-rows", roq.DefaultBasisRows, "Frequency samples in the reduced basis")
	basisCols := fs.Int("basis-cols", roq.DefaultBasisCols, "Number of reduced basis elements")
	outDir := fs.String("outdir", ".", "Directory for the weight files")
	debug := fs.Bool("debug", false, "Enable debug logging")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &config.ROQConfig{}
	if *configPath != "" {
		loaded, err := config.Load(fsutil.OSFileSystem{}, *configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded.GetROQ()
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	override := func(name string) bool { return set[name] || *configPath == "" }

	if set["data"] {
		cfg.DataFiles = data
	}
	if set["psd"] {
		cfg.PSDFiles = psd
	}
	if set["ifo"] {
		cfg.IFOs = ifos
	}
	if override("time-prior") {
		cfg.TimePrior = timePrior
	}
	if override("seglen") {
		cfg.Seglen = seglen
	}
	if override("flow") {
		cfg.FLow = fLow
	}
	if override("delta-tc") {
		cfg.DeltaTc = deltaTc
	}
	if override("basis-set") {
		cfg.BasisSet = basisSet
	}
	if override("invV") {
		cfg.InvV = invV
	}
	if override("basis-rows") {
		cfg.BasisRows = basisRows
	}
	if override("basis-cols") {
		cfg.BasisCols = basisCols
	}
	if override("outdir") {
		cfg.OutDir = outDir
	}

	if *showVersion {
		return &options{cfg: cfg, showVersion: true}, nil
	}
	if err := checkROQConfig(cfg); err != nil {
		return nil, err
	}
	return &options{cfg: cfg, debug: *debug}, nil
}

// checkROQConfig validates the values and requires everything a run needs.
func checkROQConfig(cfg *config.ROQConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(cfg.IFOs) == 0 {
		return errors.New("at least one -ifo is required")
	}
	if err := security.ValidateDetectorNames(cfg.IFOs); err != nil {
		return err
	}
	if len(cfg.DataFiles) != len(cfg.IFOs) || len(cfg.PSDFiles) != len(cfg.IFOs) {
		return fmt.Errorf("need one -data and one -psd per detector (%d detectors, %d data, %d psd)",
			len(cfg.IFOs), len(cfg.DataFiles), len(cfg.PSDFiles))
	}
	if cfg.GetBasisSet() == "" || cfg.GetInvV() == "" {
		return errors.New("-basis-set and -invV are required")
	}
	if cfg.GetSeglen() <= 0 {
		return errors.New("-seglen must be positive")
	}
	if cfg.GetDeltaTc() <= 0 {
		return errors.New("-delta-tc must be positive")
	}
	return nil
}

// run loads the basis, computes the weights and writes the manifest.
func run(cfg *config.ROQConfig, fsys fsutil.FileSystem, clock timeutil.Clock) (string, error) {
	man := manifest.New("roqweights", clock)
	params := roq.Params{
		Seglen:    cfg.GetSeglen(),
		TimePrior: cfg.GetTimePrior(),
		FLow:      cfg.GetFLow(),
		DeltaTc:   cfg.GetDeltaTc(),
	}
	man.SetParam("params", params)
	man.SetParam("ifos", cfg.IFOs)
	man.SetParam("basis_shape", []int{cfg.GetBasisRows(), cfg.GetBasisCols()})
	man.SetParam("debug", monitoring.DebugEnabled())

	rows, cols := cfg.GetBasisRows(), cfg.GetBasisCols()
	monitoring.Logf("[roq] Loading reduced basis %s (%dx%d)", cfg.GetBasisSet(), rows, cols)
	basis, err := roq.LoadMatrix(fsys, cfg.GetBasisSet(), rows, cols)
	if err != nil {
		return "", err
	}
	invV, err := roq.LoadMatrix(fsys, cfg.GetInvV(), cols, cols)
	if err != nil {
		return "", err
	}

	inputs := make([]roq.Input, len(cfg.IFOs))
	for i, name := range cfg.IFOs {
		inputs[i] = roq.Input{IFO: name, DataPath: cfg.DataFiles[i], PSDPath: cfg.PSDFiles[i]}
	}

	b := &roq.Builder{Params: params, Basis: basis, InvV: invV, FS: fsys}
	outDir := cfg.GetOutDir()
	n, err := b.Run(inputs, outDir)
	if err != nil {
		return "", err
	}
	man.SetParam("num_tc_sub_domains", n)
	for _, in := range inputs {
		man.AddOutput(roq.WeightsPath(outDir, in.IFO))
	}
	man.AddOutput(filepath.Join(outDir, roq.GridSizeFile))
	return man.Finish(fsys, outDir)
}

func main() {
	fs := flag.NewFlagSet("roqweights", flag.ContinueOnError)
	opts, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("roqweights: %v", err)
	}
	if opts.showVersion {
		fmt.Println("roqweights", version.String())
		return
	}
	monitoring.SetDebug(opts.debug)

	path, err := run(opts.cfg, fsutil.OSFileSystem{}, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("roqweights: %v", err)
	}
	log.Printf("Run manifest written to %s", path)
}
