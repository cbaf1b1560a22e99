// Command injtimes reads science and veto segment lists for a set of
// detectors and writes candidate injection GPS times in unvetoed coincident
// time, or time-slid injections when -timeslides is given.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gwprep/gwprep/internal/config"
	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/ifo"
	"github.com/gwprep/gwprep/internal/monitoring"
	"github.com/gwprep/gwprep/internal/timeutil"
	"github.com/gwprep/gwprep/internal/version"
)

type options struct {
	cfg         *config.InjTimesConfig
	where       ifo.Placement
	maxDuration int64
	debug       bool
	showVersion bool
}

// parseCSVList parses a comma-separated list of names or paths
func parseCSVList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseFlags builds the run configuration from an optional -config file and
// the command line. Flags given explicitly win over the file.
func parseFlags(fs *flag.FlagSet, args []string) (*options, error) {
	configPath := fs.String("config", "", "JSON or YAML run configuration (flags override it)")
	ifos := fs.String("ifos", "H1,L1,V1", "Comma-separated detectors, in the same order as -segfiles and -vetofiles")
	segFiles := fs.String("segfiles", "", "Comma-separated science segment files, one per detector")
	vetoFiles := fs.String("vetofiles", "", "Comma-separated veto segment files, one per detector")
	length := fs.Int64("length", 45, "Length of signal segments in seconds")
	psdLength := fs.Int64("psdlength", 1024, "Minimum length for calculating the PSD in seconds")
	ninj := fs.Int("ninj", 1000, "Number of time-slid injections")
	outFolder := fs.String("outfolder", ".", "Output folder")
	noDouble := fs.Bool("nodouble", false, "Restrict to single detectors")
	noTriple := fs.Bool("notriple", false, "Restrict to doubles")
	timeslides := fs.Bool("timeslides", false, "Generate time slides (implies -nodouble and -notriple)")
	plot := fs.Bool("plot", false, "Plot cumulative segment length distributions")
	check := fs.Bool("check", false, "Report the distance of every time-slid trigger to its segment edges")
	ref := fs.String("ref", "H1", "Reference detector for time slides")
	seed := fs.Uint64("seed", 0, "Seed for the time-slide sampler (0 seeds from the clock)")
	where := fs.String("where", "every", "Trigger placement for coincidence times: every or middle")
	limit := fs.Int("limit", 0, "Keep at most this many times per coincidence injtimes file (0 keeps all)")
	unvetoed := fs.Bool("unvetoed", false, "Also write unvetoed_<IFO>.dat segment lists")
	maxDur := fs.Int64("maxdur", 0, "Only plot segments up to this duration (0 plots all)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &config.InjTimesConfig{}
	if *configPath != "" {
		loaded, err := config.Load(fsutil.OSFileSystem{}, *configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded.GetInjTimes()
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	override := func(name string) bool { return set[name] || *configPath == "" }

	if override("ifos") || len(cfg.IFOs) == 0 {
		cfg.IFOs = parseCSVList(*ifos)
	}
	if override("segfiles") {
		cfg.SegFiles = parseCSVList(*segFiles)
	}
	if override("vetofiles") {
		cfg.VetoFiles = parseCSVList(*vetoFiles)
	}
	if override("length") {
		cfg.Length = length
	}
	if override("psdlength") {
		cfg.PSDLength = psdLength
	}
	if override("ninj") {
		cfg.NInj = ninj
	}
	if override("outfolder") {
		cfg.OutFolder = outFolder
	}
	if override("where") {
		cfg.Where = where
	}
	if override("limit") {
		cfg.Limit = limit
	}
	if override("unvetoed") {
		cfg.Unvetoed = unvetoed
	}
	if set["ref"] {
		cfg.Reference = ref
	}
	if set["seed"] {
		cfg.Seed = seed
	}
	if override("nodouble") {
		cfg.NoDouble = noDouble
	}
	if override("notriple") {
		cfg.NoTriple = noTriple
	}
	if override("timeslides") {
		cfg.Timeslides = timeslides
	}
	if override("plot") {
		cfg.Plot = plot
	}
	if override("check") {
		cfg.Check = check
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	placement, err := ifo.ParsePlacement(cfg.GetWhere())
	if err != nil {
		return nil, err
	}
	return &options{cfg: cfg, where: placement, maxDuration: *maxDur, debug: *debug, showVersion: *showVersion}, nil
}

func main() {
	fs := flag.NewFlagSet("injtimes", flag.ContinueOnError)
	opts, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("injtimes: %v", err)
	}
	if opts.showVersion {
		fmt.Println("injtimes", version.String())
		return
	}
	monitoring.SetDebug(opts.debug)

	r := &runner{
		cfg:         opts.cfg,
		where:       opts.where,
		maxDuration: opts.maxDuration,
		fs:          fsutil.OSFileSystem{},
		clock:       timeutil.RealClock{},
	}
	path, err := r.run()
	if err != nil {
		log.Fatalf("injtimes: %v", err)
	}
	log.Printf("Run manifest written to %s", path)
}
