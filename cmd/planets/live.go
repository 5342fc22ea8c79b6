package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/planets/internal/config"
	"github.com/san-kum/planets/internal/logger"
	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
	"github.com/san-kum/planets/internal/viz"
)

// runLive opens the viewer on a file or preset, or shows the start menu when
// neither is given.
func runLive(cmd *cobra.Command, args []string) error {
	log, closeLog, err := viewerLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	opts, err := viewerOptions(log)
	if err != nil {
		return err
	}

	if len(args) == 0 && preset == "" {
		return viz.Run(viz.NewMenu(menuItems(), func(name string) (viz.Model, error) {
			u, err := startUniverse(name)
			if err != nil {
				return viz.Model{}, err
			}
			return viz.NewModel(u, newPlacing(u), opts), nil
		}))
	}

	u := universe.New(cfg.UniverseOptions())
	if len(args) == 1 {
		if _, err := storage.LoadFile(args[0], u); err != nil {
			return err
		}
		opts.SavePath = args[0]
	} else if err := applyPreset(u, preset, newRand()); err != nil {
		return err
	}
	log.Info("viewer starting", "bodies", u.Len())
	return viz.Run(viz.NewModel(u, newPlacing(u), opts))
}

func viewerOptions(log *slog.Logger) (viz.Options, error) {
	random, err := cfg.RandomParams()
	if err != nil {
		return viz.Options{}, err
	}
	opts := viz.DefaultOptions()
	opts.FPS = cfg.Viewer.FPS
	opts.Theme = cfg.Viewer.Theme
	opts.Random = random
	opts.Seed = cfg.Simulation.Seed
	opts.Logger = log
	if frameRate > 0 {
		opts.FPS = frameRate
	}
	if theme != "" {
		opts.Theme = theme
	}
	return opts, nil
}

// viewerLogger writes to --log-file when given. Anything written to the
// terminal would corrupt the viewer.
func viewerLogger() (*slog.Logger, func(), error) {
	if logFile == "" {
		l := logger.Discard()
		slog.SetDefault(l)
		return l, func() {}, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.InitWriter(f, cfg.Logging), func() { f.Close() }, nil
}

func menuItems() []viz.MenuItem {
	items := []viz.MenuItem{
		{Name: "empty", Description: "an empty universe to fill by hand"},
		{Name: "random", Description: fmt.Sprintf("%d random bodies", cfg.Random.Count)},
	}
	for _, name := range config.ListPresets() {
		items = append(items, viz.MenuItem{Name: name, Description: config.GetPreset(name).Description})
	}
	return items
}

func startUniverse(name string) (*universe.Universe, error) {
	u := universe.New(cfg.UniverseOptions())
	switch name {
	case "empty":
	case "random":
		if err := addRandom(u, newRand(), 0); err != nil {
			return nil, err
		}
	default:
		if err := applyPreset(u, name, newRand()); err != nil {
			return nil, err
		}
	}
	return u, nil
}
