package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/san-kum/planets/internal/camera"
	"github.com/san-kum/planets/internal/config"
	"github.com/san-kum/planets/internal/export"
	"github.com/san-kum/planets/internal/metrics"
	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
	"github.com/san-kum/planets/internal/viz"
)

func generateUniverse(cmd *cobra.Command, args []string) error {
	u, err := buildUniverse(newRand(), true)
	if err != nil {
		return err
	}
	if err := storage.SaveFile(args[0], u); err != nil {
		return err
	}
	fmt.Printf("wrote %d bodies to %s\n", u.Len(), args[0])
	return nil
}

func universeInfo(cmd *cobra.Command, args []string) error {
	u := universe.New(cfg.UniverseOptions())
	if _, err := storage.LoadFile(args[0], u); err != nil {
		return err
	}

	s := metrics.Summarize(u)
	fmt.Printf("file: %s\n", args[0])
	fmt.Printf("bodies: %d\n", s.Bodies)
	if s.Bodies == 0 {
		return nil
	}

	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	minMass, maxMass := math.Inf(1), 0.0
	for _, b := range u.All() {
		for i := range 3 {
			lo[i] = math.Min(lo[i], b.Position[i])
			hi[i] = math.Max(hi[i], b.Position[i])
		}
		minMass = math.Min(minMass, b.Mass)
		maxMass = math.Max(maxMass, b.Mass)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "total mass\t%.4g\n", s.TotalMass)
	fmt.Fprintf(w, "mass range\t%.4g .. %.4g\n", minMass, maxMass)
	fmt.Fprintf(w, "kinetic energy\t%.6g\n", s.Kinetic)
	fmt.Fprintf(w, "potential energy\t%.6g\n", s.Potential)
	fmt.Fprintf(w, "total energy\t%.6g\n", s.Energy())
	fmt.Fprintf(w, "momentum\t%.6g\n", s.Momentum)
	fmt.Fprintf(w, "bounds\t(%.1f, %.1f, %.1f) .. (%.1f, %.1f, %.1f)\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		fmt.Fprintf(w, "%s\t%s\n", name, config.GetPreset(name).Description)
	}
	return w.Flush()
}

// renderUniverse advances a universe file for --frames frames so the bodies
// leave trails, then writes it as a trail SVG, a braille view SVG or a JSON
// snapshot.
func renderUniverse(cmd *cobra.Command, args []string) error {
	u := universe.New(cfg.UniverseOptions())
	if _, err := storage.LoadFile(args[0], u); err != nil {
		return err
	}
	for range renderFrames {
		u.Advance(frameMicros)
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch renderFormat {
	case "json":
		return storage.ExportUniverseJSON(out, u)
	case "braille":
		cam := camera.New()
		cam.FollowWeightedAverage()
		cam.Update(u)
		scene := viz.Scene{Canvas: viz.NewCanvas(svgWidth/8, svgHeight/16), Camera: cam}
		scene.Render(u, nil)
		_, err := fmt.Fprintln(out, export.CanvasToSVG(scene.Canvas, 4))
		return err
	case "trails":
		svg := export.TrailsToSVG(export.TrailsFromUniverse(u), svgWidth, svgHeight)
		if svg == "" {
			return fmt.Errorf("%s has nothing to draw", args[0])
		}
		_, err := fmt.Fprintln(out, svg)
		return err
	default:
		return fmt.Errorf("unknown format %q (trails, braille, json)", renderFormat)
	}
}
