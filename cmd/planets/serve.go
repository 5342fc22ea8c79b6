package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/planets/internal/automation"
	"github.com/san-kum/planets/internal/metrics"
	"github.com/san-kum/planets/internal/server"
	"github.com/san-kum/planets/internal/storage"
)

func serve(cmd *cobra.Command, args []string) error {
	if addr != "" {
		cfg.Server.Addr = addr
	}

	u, err := buildUniverse(newRand(), false)
	if err != nil {
		return err
	}
	u.AddObserver(metrics.NewLogObserver(nil))

	s, err := server.New(u, cfg, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.ListenAndServe(ctx)
}

func runScript(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running scenario %s (%d steps)\n", scenario.Name, len(scenario.Steps))
	results, _, err := automation.RunScenario(ctx, scenario, automation.Options{
		Config: cfg,
		Store:  st,
		Dir:    filepath.Dir(args[0]),
		Logger: slog.Default(),
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tACTION\tBODIES\tMASS\tTIME\tMERGES\tRUN")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.4g\t%.3f\t%d\t%s\n", r.Index+1, r.Action, r.Bodies, r.Mass, r.Time, r.Merges, r.RunID)
	}
	w.Flush()

	for _, r := range results {
		if len(r.Trials) == 0 {
			continue
		}
		stable, unstable := automation.MonteCarloStats(r.Trials)
		fmt.Printf("step %d trials: %d stable, %d unstable\n", r.Index+1, stable, unstable)
	}
	return err
}
