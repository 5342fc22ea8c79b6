package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/planets/internal/analysis"
	"github.com/san-kum/planets/internal/export"
	"github.com/san-kum/planets/internal/metrics"
	"github.com/san-kum/planets/internal/sim"
	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
)

func runHeadless(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	u, err := buildUniverse(newRand(), true)
	if err != nil {
		return err
	}

	s := sim.New(u)
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}
	u.AddObserver(metrics.NewLogObserver(nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runCfg := sim.Config{Frames: frames, FrameMicros: frameMicros, RecordEvery: recordEvery, Seed: cfg.Simulation.Seed}
	fmt.Printf("running %d bodies for %d frames...\n", u.Len(), frames)
	start := time.Now()

	result, err := s.Run(ctx, runCfg)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		fmt.Printf("interrupted after %d frames\n", result.FramesRun)
	}
	elapsed := time.Since(start)

	source := "random"
	switch {
	case inputFile != "":
		source = "file"
	case preset != "":
		source = preset
	}
	runID, err := st.Save(storage.RunMetadata{
		Source:        source,
		Seed:          runCfg.Seed,
		Frames:        result.FramesRun,
		FrameMicros:   runCfg.FrameMicros,
		StepsPerFrame: u.StepsPerFrame(),
		Speed:         u.Speed(),
		Workers:       cfg.Simulation.Workers,
		InitialBodies: result.InitialBodies,
		FinalBodies:   result.FinalBodies,
		Metrics:       result.Metrics,
	}, result.Frames)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("bodies: %d -> %d (%d merges)\n", result.InitialBodies, result.FinalBodies, result.Merges)
	fmt.Printf("simulated time: %.3f\n", result.Time)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tFRAMES\tBODIES\tSEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d -> %d\t%d\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.InitialBodies,
			run.FinalBodies,
			run.Seed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	recorded, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if len(recorded) < 2 {
		return fmt.Errorf("not enough frames to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("samples: %d\n\n", len(recorded))

	bodies := make([]float64, len(recorded))
	mass := make([]float64, len(recorded))
	kinetic := make([]float64, len(recorded))
	for i, f := range recorded {
		bodies[i] = float64(len(f.Bodies))
		mass[i] = f.TotalMass()
		kinetic[i] = f.KineticEnergy()
	}

	series := []struct {
		caption string
		data    []float64
	}{
		{"body count", bodies},
		{"total mass", mass},
		{"kinetic energy", kinetic},
	}
	for _, s := range series {
		graph := asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	recorded, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, meta, recorded)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	recorded, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	svg := export.TrailsToSVG(export.TrailsFromFrames(recorded), svgWidth, svgHeight)
	if svg == "" {
		return fmt.Errorf("run %s has nothing to draw", runID)
	}

	if outFile == "" {
		_, err = fmt.Println(svg)
		return err
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	recorded, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(recorded) < 4 {
		return fmt.Errorf("not enough frames to analyze")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("source: %s\n\n", meta.Source)

	kinetic := make([]float64, len(recorded))
	for i, f := range recorded {
		kinetic[i] = f.KineticEnergy()
	}
	ps := analysis.PowerSpectrum(kinetic)
	graph := asciigraph.Plot(ps,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (kinetic energy)"),
	)
	fmt.Println(graph)
	fmt.Println()

	interval := recorded[1].Time - recorded[0].Time
	period, ok := analysis.DominantPeriod(kinetic, interval)
	if !ok || interval <= 0 {
		fmt.Println("no dominant period")
		return nil
	}
	fmt.Printf("dominant period: %.3f (simulated time)\n", period)
	fmt.Printf("frequency: %.5f\n", 1/period)
	return nil
}

func lyapunov(cmd *cobra.Command, args []string) error {
	// both copies must start from the same seed
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = uint64(time.Now().UnixNano())
	}
	build := func() (*universe.Universe, error) {
		return buildUniverse(newRand(), true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runCfg := sim.Config{Frames: frames, FrameMicros: frameMicros}
	lambda, err := analysis.LyapunovExponent(ctx, build, perturbation, runCfg)
	if err != nil {
		return err
	}
	fmt.Printf("seed: %d\n", cfg.Simulation.Seed)
	fmt.Printf("largest lyapunov exponent: %.6g\n", lambda)
	if lambda > 0 {
		fmt.Printf("e-folding time: %.3f\n", 1/lambda)
	}
	return nil
}
