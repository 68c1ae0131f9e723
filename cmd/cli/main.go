package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/himanishpuri/Rifft/internal/level"
	"github.com/himanishpuri/Rifft/internal/onset"
	"github.com/himanishpuri/Rifft/pkg/logger"
	"github.com/himanishpuri/Rifft/pkg/rifft"
	"github.com/himanishpuri/Rifft/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// audioExts are the files analyze-dir picks up.
var audioExts = []string{".wav", ".mp3", ".flac", ".ogg", ".m4a", ".aac"}

// commonFlags are accepted by every command.
type commonFlags struct {
	dbPath      string
	tempDir     string
	sampleRate  int
	window      int
	smoothing   int
	sensitivity float64
}

func addCommonFlags(set *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	set.StringVar(&c.dbPath, "db", getEnvOrDefault("RIFFT_DB_PATH", "rifft.sqlite3"), "Path to the SQLite database file")
	set.StringVar(&c.tempDir, "temp", getEnvOrDefault("RIFFT_TEMP_DIR", os.TempDir()), "Directory for temporary audio conversion files")
	set.IntVar(&c.sampleRate, "rate", onset.DefaultSampleRate, "Analysis sample rate")
	set.IntVar(&c.window, "window", onset.DefaultWindowSize, "Analysis window size (power of two)")
	set.IntVar(&c.smoothing, "smoothing", onset.DefaultSmoothingWindow, "Smoothing window in analysis windows (odd)")
	set.Float64Var(&c.sensitivity, "sensitivity", onset.DefaultSensitivity, "Threshold multiplier; higher finds fewer onsets")
	return c
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates a new Rifft service with configured options
func createService(c *commonFlags) (rifft.Service, error) {
	return rifft.NewService(
		rifft.WithDBPath(c.dbPath),
		rifft.WithTempDir(c.tempDir),
		rifft.WithSampleRate(c.sampleRate),
		rifft.WithWindowSize(c.window),
		rifft.WithSmoothingWindow(c.smoothing),
		rifft.WithSensitivity(c.sensitivity),
	)
}

func main() {
	_ = godotenv.Load()
	log := logger.GetLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("Executing command: %s", command)

	args := os.Args[2:]
	switch command {
	case "analyze":
		handleAnalyze(args)
	case "analyze-dir":
		handleAnalyzeDir(args)
	case "generate":
		handleGenerate(args)
	case "export":
		handleExport(args)
	case "onsets":
		handleOnsets(args)
	case "list":
		handleList(args)
	case "delete":
		handleDelete(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// fail reports err with its stack trace and exits.
func fail(msg string, err error) {
	report := failure(msg, err)
	fmt.Print("❌ ", report)
	logger.GetLogger().Errorf("%s", strings.TrimRight(report, "\n"))
	os.Exit(1)
}

// failure renders msg and err with the stack captured here.
func failure(msg string, err error) string {
	if err == nil {
		return msg + "\n"
	}
	return msg + ": " + xerrors.Sprint(xerrors.New(err))
}

// splitArgs separates the leading positional argument from the flags that
// follow it, so "analyze song.mp3 -title x" parses like "analyze -title x song.mp3".
func splitArgs(args []string) (string, []string) {
	var positional string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && positional == "" {
			positional = arg
			continue
		}
		flagArgs = append(flagArgs, args[i:]...)
		break
	}
	return positional, flagArgs
}

// parseCommand parses args for a command that takes one positional argument.
func parseCommand(set *flag.FlagSet, args []string) string {
	positional, flagArgs := splitArgs(args)
	set.Parse(flagArgs)
	if positional == "" && set.NArg() > 0 {
		positional = set.Arg(0)
	}
	return positional
}

// analyzeFile runs a WAV straight through the detector when it already has
// the analysis rate, and converts everything else with ffmpeg.
func analyzeFile(ctx context.Context, svc rifft.Service, path, title, artist string) (string, error) {
	if utils.HasExt(path, ".wav") {
		id, err := svc.AnalyzeWAV(ctx, path, title, artist)
		if err == nil || !errors.Is(err, onset.ErrSampleRateMismatch) {
			return id, err
		}
	}
	return svc.AnalyzeTrack(ctx, path, title, artist)
}

func handleAnalyze(args []string) {
	cmd := flag.NewFlagSet("analyze", flag.ExitOnError)
	common := addCommonFlags(cmd)
	title := cmd.String("title", "", "Track title (defaults to tags or file name)")
	artist := cmd.String("artist", "", "Artist name (defaults to tags)")
	path := parseCommand(cmd, args)

	if path == "" {
		fmt.Println("Usage: rifft analyze <audio_file> [-title <title>] [-artist <artist>]")
		os.Exit(1)
	}

	svc, err := createService(common)
	if err != nil {
		fail("Failed to create service", err)
	}
	defer svc.Close()

	start := time.Now()
	trackID, err := analyzeFile(context.Background(), svc, path, *title, *artist)
	if err != nil {
		fail("Failed to analyze track", err)
	}

	track, err := svc.GetTrack(trackID)
	if err != nil {
		fail("Failed to load track", err)
	}
	fmt.Printf("\n✅ Analyzed in %s\n", time.Since(start).Round(time.Millisecond))
	printTrack(track)
}

func handleAnalyzeDir(args []string) {
	cmd := flag.NewFlagSet("analyze-dir", flag.ExitOnError)
	common := addCommonFlags(cmd)
	workers := cmd.Int("workers", 0, "Parallel analyses (default: NumCPU-1)")
	root := parseCommand(cmd, args)

	if root == "" {
		fmt.Println("Usage: rifft analyze-dir <directory> [-workers N]")
		os.Exit(1)
	}

	files, err := collectAudioFiles(root)
	if err != nil {
		fail("Failed to scan directory", err)
	}
	if len(files) == 0 {
		fmt.Printf("No audio files under %s\n", root)
		return
	}

	svc, err := createService(common)
	if err != nil {
		fail("Failed to create service", err)
	}
	defer svc.Close()

	w := *workers
	if w <= 0 {
		w = max(runtime.NumCPU()-1, 1)
	}

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(files)),
		mpb.PrependDecorators(
			decor.Name("Analyzing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	type result struct {
		path string
		id   string
		err  error
	}
	jobs := make(chan string, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	for i := 0; i < w; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				start := time.Now()
				id, err := analyzeFile(context.Background(), svc, path, "", "")
				results <- result{path: path, id: id, err: err}
				bar.EwmaIncrement(time.Since(start))
			}
		}()
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var failed []result
	ok := 0
	for r := range results {
		if r.err != nil {
			failed = append(failed, r)
			continue
		}
		ok++
	}
	p.Wait()

	fmt.Printf("\n✅ Analyzed %d/%d file(s)\n", ok, len(files))
	for _, r := range failed {
		fmt.Printf("❌ %s: %v\n", r.path, r.err)
	}
}

// collectAudioFiles returns every audio file under root, sorted.
func collectAudioFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && utils.HasExt(path, audioExts...) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// motionFlags tune the level generator.
type motionFlags struct {
	changeRate float64
	resetRate  float64
	force      float64
	velocity   float64
}

func addMotionFlags(set *flag.FlagSet) *motionFlags {
	m := &motionFlags{}
	set.Float64Var(&m.changeRate, "mode-change-rate", level.DefaultModeChangeRate, "Chance per second of switching mode")
	set.Float64Var(&m.resetRate, "reset-rate", level.DefaultResetRate, "Chance that a mode switch restarts the trajectory")
	set.Float64Var(&m.force, "force", level.DefaultForceStrength, "Strength of the pull toward each mode's attractor")
	set.Float64Var(&m.velocity, "velocity", level.DefaultNominalVelocity, "Speed the trajectory is renormalized to")
	return m
}

func (m *motionFlags) options(dbPath string) []rifft.Option {
	return []rifft.Option{
		rifft.WithDBPath(dbPath),
		rifft.WithModeChangeRate(m.changeRate),
		rifft.WithResetRate(m.resetRate),
		rifft.WithForceStrength(m.force),
		rifft.WithNominalVelocity(m.velocity),
	}
}

func handleGenerate(args []string) {
	cmd := flag.NewFlagSet("generate", flag.ExitOnError)
	common := addCommonFlags(cmd)
	seedStr := cmd.String("seed", "", "Random seed (default: current time)")
	out := cmd.String("out", "", "Also write the level descriptor to this file")
	motion := addMotionFlags(cmd)
	trackID := parseCommand(cmd, args)

	if trackID == "" {
		fmt.Println("Usage: rifft generate <track-id> [-seed N] [-out level.json] [-force F] [-velocity V]")
		os.Exit(1)
	}

	seed := uint64(time.Now().UnixNano())
	if *seedStr != "" {
		v, err := strconv.ParseUint(*seedStr, 10, 64)
		if err != nil {
			fail("Invalid seed", err)
		}
		seed = v
	}

	svc, err := rifft.NewService(motion.options(common.dbPath)...)
	if err != nil {
		fail("Failed to create service", err)
	}
	defer svc.Close()

	levelID, err := svc.GenerateLevel(context.Background(), trackID, seed)
	if err != nil {
		fail("Failed to generate level", err)
	}
	fmt.Printf("\n✅ Generated level %s (seed %d)\n", levelID, seed)

	if *out != "" {
		if err := svc.SaveLevel(levelID, *out); err != nil {
			fail("Failed to export level", err)
		}
		fmt.Printf("   Written to %s\n", *out)
	}
}

func handleExport(args []string) {
	cmd := flag.NewFlagSet("export", flag.ExitOnError)
	common := addCommonFlags(cmd)
	out := cmd.String("out", "", "Output file (default: stdout)")
	levelID := parseCommand(cmd, args)

	if levelID == "" {
		fmt.Println("Usage: rifft export <level-id> [-out level.json]")
		os.Exit(1)
	}

	svc, err := createService(common)
	if err != nil {
		fail("Failed to create service", err)
	}
	defer svc.Close()

	if *out == "" {
		if err := svc.ExportLevel(levelID, os.Stdout); err != nil {
			fail("Failed to export level", err)
		}
		return
	}
	if err := svc.SaveLevel(levelID, *out); err != nil {
		fail("Failed to export level", err)
	}
}

func handleOnsets(args []string) {
	cmd := flag.NewFlagSet("onsets", flag.ExitOnError)
	common := addCommonFlags(cmd)
	trackID := parseCommand(cmd, args)

	if trackID == "" {
		fmt.Println("Usage: rifft onsets <track-id>")
		os.Exit(1)
	}

	svc, err := createService(common)
	if err != nil {
		fail("Failed to create service", err)
	}
	defer svc.Close()

	onsets, err := svc.GetOnsets(trackID)
	if err != nil {
		fail("Failed to load onsets", err)
	}
	writeOnsets(os.Stdout, onsets)
}

func writeOnsets(w io.Writer, onsets []rifft.Onset) {
	for _, o := range onsets {
		fmt.Fprintf(w, "%.4f\n", o.Timestamp)
	}
}

func handleList(args []string) {
	cmd := flag.NewFlagSet("list", flag.ExitOnError)
	common := addCommonFlags(cmd)
	cmd.Parse(args)

	svc, err := createService(common)
	if err != nil {
		fail("Failed to create service", err)
	}
	defer svc.Close()

	tracks, err := svc.ListTracks()
	if err != nil {
		fail("Failed to list tracks", err)
	}
	if len(tracks) == 0 {
		fmt.Println("No tracks analyzed yet.")
		return
	}

	fmt.Printf("\n🎵 Found %d track(s):\n\n", len(tracks))
	for i := range tracks {
		fmt.Printf("%d. ", i+1)
		printTrack(&tracks[i])
		levels, err := svc.ListLevels(tracks[i].ID)
		if err != nil {
			continue
		}
		for _, l := range levels {
			fmt.Printf("   Level %s: %d notes (seed %d)\n", l.ID, l.NoteCount, l.Seed)
		}
		fmt.Println()
	}
}

func printTrack(t *rifft.Track) {
	secs := t.DurationMs / 1000
	fmt.Printf("\"%s\" by %s (ID: %s)\n", t.Title, t.Artist, t.ID)
	fmt.Printf("   Source:   %s\n", t.SourcePath)
	fmt.Printf("   Duration: %d:%02d\n", secs/60, secs%60)
	fmt.Printf("   Onsets:   %d (window %d, smoothing %d, sensitivity %.2f)\n",
		t.OnsetCount, t.WindowSize, t.SmoothingWindow, t.Sensitivity)
}

func handleDelete(args []string) {
	cmd := flag.NewFlagSet("delete", flag.ExitOnError)
	common := addCommonFlags(cmd)
	trackID := parseCommand(cmd, args)

	if trackID == "" {
		fmt.Println("Usage: rifft delete <track-id>")
		os.Exit(1)
	}

	svc, err := createService(common)
	if err != nil {
		fail("Failed to create service", err)
	}
	defer svc.Close()

	track, err := svc.GetTrack(trackID)
	if err != nil {
		fail("Track not found", err)
	}
	if err := svc.DeleteTrack(trackID); err != nil {
		fail("Failed to delete track", err)
	}

	fmt.Printf("\n✅ Deleted \"%s\" by %s (ID: %s)\n", track.Title, track.Artist, track.ID)
}

func printUsage() {
	fmt.Println(`Usage: rifft <command> [arguments] [flags]

Commands:
  analyze <file>          Detect onsets in an audio file and store them
  analyze-dir <dir>       Analyze every audio file under a directory
  generate <track-id>     Generate a level from a track's onsets
  export <level-id>       Write a level descriptor as JSON
  onsets <track-id>       Print onset times in seconds
  list                    List analyzed tracks and their levels
  delete <track-id>       Delete a track with its onsets and levels

Common flags:
  -db <path>              SQLite database (env RIFFT_DB_PATH)
  -temp <dir>             Conversion scratch directory (env RIFFT_TEMP_DIR)
  -rate, -window, -smoothing, -sensitivity   Onset detector settings`)
}
