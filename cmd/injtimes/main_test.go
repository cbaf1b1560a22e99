package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/ifo"
	"github.com/gwprep/gwprep/internal/manifest"
	"github.com/gwprep/gwprep/internal/monitoring"
	"github.com/gwprep/gwprep/internal/timeutil"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("injtimes", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseCSVList(t *testing.T) {
	assert.Nil(t, parseCSVList(""))
	assert.Equal(t, []string{"H1", "L1", "V1"}, parseCSVList("H1, L1 ,V1"))
	assert.Equal(t, []string{"a.seg", "b.seg"}, parseCSVList("a.seg,,b.seg"))
}

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags(newFlagSet(), nil)
	require.NoError(t, err)

	cfg := opts.cfg
	assert.Equal(t, []string{"H1", "L1", "V1"}, cfg.IFOs)
	assert.Equal(t, int64(45), cfg.GetLength())
	assert.Equal(t, int64(1024), cfg.MinLen())
	assert.Equal(t, 1000, cfg.GetNInj())
	assert.Equal(t, ".", cfg.GetOutFolder())
	assert.Nil(t, cfg.Reference)
	assert.False(t, cfg.GetTimeslides())
	assert.False(t, opts.showVersion)
	assert.Equal(t, ifo.PlaceEvery, opts.where)
	assert.Equal(t, 0, cfg.GetLimit())
	assert.False(t, cfg.GetUnvetoed())
}

func TestParseFlagsPlacement(t *testing.T) {
	opts, err := parseFlags(newFlagSet(), []string{"-where", "middle", "-limit", "4", "-unvetoed"})
	require.NoError(t, err)
	assert.Equal(t, ifo.PlaceMiddle, opts.where)
	assert.Equal(t, 4, opts.cfg.GetLimit())
	assert.True(t, opts.cfg.GetUnvetoed())

	_, err = parseFlags(newFlagSet(), []string{"-where", "edges"})
	assert.ErrorContains(t, err, "placement")

	_, err = parseFlags(newFlagSet(), []string{"-limit", "-1"})
	assert.Error(t, err)
}

func TestParseFlagsConfigOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
injtimes:
  ifos: [H1, L1]
  segfiles: [h.seg, l.seg]
  vetofiles: [h.veto, l.veto]
  length: 30
  psd_length: 40
  timeslides: true
`), 0644))

	opts, err := parseFlags(newFlagSet(), []string{"-config", path, "-length", "60", "-ref", "L1"})
	require.NoError(t, err)

	cfg := opts.cfg
	assert.Equal(t, []string{"H1", "L1"}, cfg.IFOs)
	assert.Equal(t, []string{"h.seg", "l.seg"}, cfg.SegFiles)
	assert.Equal(t, int64(60), cfg.GetLength())
	assert.Equal(t, int64(40), cfg.GetPSDLength())
	assert.Equal(t, "L1", cfg.GetReference())
	assert.True(t, cfg.GetTimeslides())
}

func TestParseFlagsErrors(t *testing.T) {
	_, err := parseFlags(newFlagSet(), []string{"-length", "0"})
	assert.Error(t, err)

	_, err = parseFlags(newFlagSet(), []string{"-ifos", "H1,L1", "-segfiles", "a"})
	assert.Error(t, err)

	_, err = parseFlags(newFlagSet(), []string{"-config", "missing.json"})
	assert.Error(t, err)
}

func TestPairs(t *testing.T) {
	p, err := pairs(3)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {0, 2}}, p)

	p, err = pairs(2)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 1}}, p)

	_, err = pairs(4)
	assert.Error(t, err)
}

func writeDetectorFiles(t *testing.T, mfs *fsutil.MemoryFileSystem) {
	t.Helper()
	files := map[string]string{
		"H1.seg":  "0 0 1000 1000\n",
		"H1.veto": "0 100 200 100\n",
		"L1.seg":  "0 500 1500 1000\n",
		"L1.veto": "0 900 950 50\n",
		"V1.seg":  "0 0 2000 2000\n",
		"V1.veto": "",
	}
	for name, body := range files {
		require.NoError(t, mfs.WriteFile(name, []byte(body), 0644))
	}
}

func newRunner(t *testing.T, args ...string) (*runner, *fsutil.MemoryFileSystem) {
	t.Helper()
	base := []string{
		"-segfiles", "H1.seg,L1.seg,V1.seg",
		"-vetofiles", "H1.veto,L1.veto,V1.veto",
		"-length", "10",
		"-psdlength", "20",
		"-outfolder", "out",
	}
	opts, err := parseFlags(newFlagSet(), append(base, args...))
	require.NoError(t, err)

	mfs := fsutil.NewMemoryFileSystem()
	writeDetectorFiles(t, mfs)
	return &runner{
		cfg:   opts.cfg,
		where: opts.where,
		fs:    mfs,
		clock: timeutil.NewMockClock(time.Date(2017, 8, 17, 12, 41, 4, 0, time.UTC)),
	}, mfs
}

func lines(t *testing.T, mfs *fsutil.MemoryFileSystem, path string) []string {
	t.Helper()
	data, err := mfs.ReadFile(path)
	require.NoError(t, err, path)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRunCoincidences(t *testing.T) {
	r, mfs := newRunner(t, "-plot")

	path, err := r.run()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", manifest.FileName), path)

	for _, name := range []string{"H1L1", "L1V1", "H1V1", "H1L1V1"} {
		assert.True(t, mfs.Exists("out/injtimes_"+name+"_20.dat"), name)
	}
	for _, name := range []string{"doubleseg_H1L1", "doubleseg_L1V1", "doubleseg_H1V1", "tripleseg_H1L1V1"} {
		assert.True(t, mfs.Exists("out/"+name+".png"), name)
		assert.True(t, mfs.Exists("out/"+name+".html"), name)
	}

	// H1L1 unvetoed time is [500,900] and [950,1000]
	times := lines(t, mfs, "out/injtimes_H1L1_20.dat")
	assert.Len(t, times, 22)
	assert.Equal(t, "518", times[0])
	assert.Equal(t, "988", times[len(times)-1])

	assert.Len(t, r.man.Outputs, 12)
}

func TestRunNoTriple(t *testing.T) {
	r, mfs := newRunner(t, "-notriple")
	_, err := r.run()
	require.NoError(t, err)

	assert.True(t, mfs.Exists("out/injtimes_H1L1_20.dat"))
	assert.False(t, mfs.Exists("out/injtimes_H1L1V1_20.dat"))
	assert.False(t, mfs.Exists("out/doubleseg_H1L1.png"))
}

func TestRunTimeslides(t *testing.T) {
	r, mfs := newRunner(t, "-timeslides", "-ninj", "5", "-seed", "7", "-check")
	_, err := r.run()
	require.NoError(t, err)

	inj := lines(t, mfs, "out/timeslides/injtimes_H1L1V1_5.dat")
	assert.Len(t, inj, 5)

	slides := lines(t, mfs, "out/timeslides/timeslides_H1L1V1_5.dat")
	require.Len(t, slides, 6)
	assert.Equal(t, "H1 L1 V1", slides[0])
	for _, row := range slides[1:] {
		assert.True(t, strings.HasPrefix(row, "0 "), "reference column must be zero: %q", row)
	}

	// time-slide mode skips doubles
	assert.False(t, mfs.Exists("out/injtimes_H1L1_20.dat"))

	again, mfs2 := newRunner(t, "-timeslides", "-ninj", "5", "-seed", "7")
	_, err = again.run()
	require.NoError(t, err)
	assert.Equal(t, inj, lines(t, mfs2, "out/timeslides/injtimes_H1L1V1_5.dat"), "same seed, same draws")
}

func TestRunTimeslidesUnknownReference(t *testing.T) {
	r, _ := newRunner(t, "-timeslides", "-ref", "K1")
	_, err := r.run()
	assert.Error(t, err)
}

func TestRunMissingFile(t *testing.T) {
	r, _ := newRunner(t)
	r.cfg.SegFiles[1] = "missing.seg"
	_, err := r.run()
	assert.Error(t, err)
}

func TestRunRejectsPathInDetectorName(t *testing.T) {
	r, _ := newRunner(t)
	r.cfg.IFOs = []string{"H1", "../L1", "V1"}
	_, err := r.run()
	assert.Error(t, err)
}

func TestRunMiddlePlacementWithLimit(t *testing.T) {
	r, mfs := newRunner(t, "-where", "middle")
	_, err := r.run()
	require.NoError(t, err)

	// one time in the middle of each 20s chunk of [500,900] and [950,1000]
	times := lines(t, mfs, "out/injtimes_H1L1_20.dat")
	assert.Len(t, times, 22)
	assert.Equal(t, "510", times[0])
	assert.Equal(t, "980", times[len(times)-1])

	limited, mfs2 := newRunner(t, "-where", "middle", "-limit", "5")
	_, err = limited.run()
	require.NoError(t, err)
	assert.Equal(t, []string{"510", "530", "550", "570", "590"}, lines(t, mfs2, "out/injtimes_H1L1_20.dat"))
}

func TestRunUnvetoedLists(t *testing.T) {
	r, mfs := newRunner(t, "-unvetoed")
	_, err := r.run()
	require.NoError(t, err)

	for _, name := range []string{"H1", "L1", "V1", "H1L1", "L1V1", "H1V1", "H1L1V1"} {
		assert.True(t, mfs.Exists("out/unvetoed_"+name+".dat"), name)
		assert.Contains(t, r.man.Outputs, filepath.Join("out", "unvetoed_"+name+".dat"))
	}

	h1 := lines(t, mfs, "out/unvetoed_H1.dat")
	require.Len(t, h1, 2)
	assert.True(t, strings.HasSuffix(h1[1], " 200 1000 800"), h1[1])

	plain, mfs2 := newRunner(t)
	_, err = plain.run()
	require.NoError(t, err)
	assert.False(t, mfs2.Exists("out/unvetoed_H1.dat"))
}

func TestRunRecordsDebugSetting(t *testing.T) {
	monitoring.SetDebug(true)
	defer monitoring.SetDebug(false)

	r, _ := newRunner(t, "-nodouble")
	_, err := r.run()
	require.NoError(t, err)
	assert.Equal(t, true, r.man.Params["debug"])
}
