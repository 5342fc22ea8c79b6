package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/planets/internal/config"
	"github.com/san-kum/planets/internal/logger"
	"github.com/san-kum/planets/internal/placing"
	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
)

var (
	dataDir    string
	configFile string
	envFile    string
	logLevel   string
	seed       uint64
	// universe source
	preset    string
	inputFile string
	numBodies int
	// headless runs
	frames       int
	frameMicros  int64
	recordEvery  int
	perturbation float64
	// live view
	frameRate int
	theme     string
	logFile   string
	// exports
	outFile      string
	svgWidth     int
	svgHeight    int
	renderFormat string
	renderFrames int
	addr         string

	cfg *config.Config
)

// main registers the commands and runs the root command. The live viewer is
// the default when no subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:               "planets",
		Short:             "interactive 3d n-body gravity simulator",
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: setup,
		RunE:              runLive,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".planets", "run store directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file (default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "random seed (0 = time based)")
	addLiveFlags(rootCmd)

	liveCmd := &cobra.Command{
		Use:   "live [universe.xml]",
		Short: "open the interactive viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addLiveFlags(liveCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation headless and store the frames",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	addSourceFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", 600, "frames to simulate")
	runCmd.Flags().Int64Var(&frameMicros, "frame-us", 16_667, "frame time in microseconds")
	runCmd.Flags().IntVar(&recordEvery, "record-every", 10, "store every n-th frame")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate how fast nearby starts diverge",
		Args:  cobra.NoArgs,
		RunE:  lyapunov,
	}
	addSourceFlags(lyapunovCmd)
	lyapunovCmd.Flags().IntVar(&frames, "frames", 600, "frames to simulate")
	lyapunovCmd.Flags().Int64Var(&frameMicros, "frame-us", 16_667, "frame time in microseconds")
	lyapunovCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-6, "initial displacement of the first body")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body count, mass and kinetic energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the trails of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 800, "image height")

	generateCmd := &cobra.Command{
		Use:   "generate [universe.xml]",
		Short: "write a random or preset universe file",
		Args:  cobra.ExactArgs(1),
		RunE:  generateUniverse,
	}
	generateCmd.Flags().StringVar(&preset, "preset", "", "use a preset instead of random bodies")
	generateCmd.Flags().IntVar(&numBodies, "bodies", 0, "number of random bodies (default from config)")

	infoCmd := &cobra.Command{
		Use:   "info [universe.xml]",
		Short: "summarize a universe file",
		Args:  cobra.ExactArgs(1),
		RunE:  universeInfo,
	}

	renderCmd := &cobra.Command{
		Use:   "render [universe.xml]",
		Short: "draw a universe file as SVG or dump it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  renderUniverse,
	}
	renderCmd.Flags().IntVar(&renderFrames, "frames", 0, "frames to advance before drawing")
	renderCmd.Flags().Int64Var(&frameMicros, "frame-us", 16_667, "frame time in microseconds")
	renderCmd.Flags().StringVar(&renderFormat, "format", "trails", "output format (trails, braille, json)")
	renderCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	renderCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	renderCmd.Flags().IntVar(&svgHeight, "height", 800, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [config.yaml]",
		Short: "write the effective configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the simulation over websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	addSourceFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	scriptCmd := &cobra.Command{
		Use:   "script [scenario.yaml]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	rootCmd.AddCommand(liveCmd, runCmd, analyzeCmd, lyapunovCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, generateCmd, infoCmd, renderCmd, presetsCmd, initConfigCmd, serveCmd, scriptCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	cmd.Flags().StringVar(&inputFile, "file", "", "start from a universe file")
	cmd.Flags().IntVar(&numBodies, "bodies", 0, "start from n random bodies")
}

func addLiveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	cmd.Flags().IntVar(&frameRate, "fps", 0, "frame rate (default from config)")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to a file while the viewer runs")
}

// setup loads the configuration, overlays the environment and flags, and
// installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configFile != "" {
		if cfg, err = config.Load(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	if err := config.ApplyEnv(cfg, envFiles...); err != nil {
		return err
	}

	if cmd.Flags().Changed("seed") {
		cfg.Simulation.Seed = seed
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// the viewer owns the terminal and sets up its own logger
	if cmd.Name() != "live" && cmd.Name() != "planets" {
		logger.Init(cfg.Logging)
	}
	return nil
}

func newRand() *rand.Rand {
	s := cfg.Simulation.Seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(s, s>>1|1))
}

func newPlacing(u *universe.Universe) *placing.Interface {
	p := placing.New(u)
	cfg.ConfigurePlacing(p)
	return p
}

// buildUniverse creates the starting universe from --file, --preset or
// --bodies, in that order. Without any of them the universe is empty unless
// randomByDefault is set.
func buildUniverse(rng *rand.Rand, randomByDefault bool) (*universe.Universe, error) {
	u := universe.New(cfg.UniverseOptions())

	switch {
	case inputFile != "":
		n, err := storage.LoadFile(inputFile, u)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", inputFile, err)
		}
		slog.Debug("universe loaded", "file", inputFile, "bodies", n)
	case preset != "":
		if err := applyPreset(u, preset, rng); err != nil {
			return nil, err
		}
	case numBodies > 0 || randomByDefault:
		if err := addRandom(u, rng, numBodies); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func applyPreset(u *universe.Universe, name string, rng *rand.Rand) error {
	p := config.GetPreset(name)
	if p == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	return p.Apply(u, rng)
}

func addRandom(u *universe.Universe, rng *rand.Rand, count int) error {
	params, err := cfg.RandomParams()
	if err != nil {
		return err
	}
	if count > 0 {
		params.Count = count
	}
	_, err = u.GenerateRandom(rng, params)
	return err
}
