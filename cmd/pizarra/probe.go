package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/agrodash/pizarra/drift"
	"github.com/agrodash/pizarra/quotes"
	"github.com/agrodash/pizarra/scraper"
)

var probeRounds int

func init() {
	probeCmd.Flags().IntVar(&probeRounds, "rounds", 1, "times to run every route; drift needs at least 2")
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Runs every quote route in-process and prints a coverage table.",
	Long: "Runs every quote route in-process and prints a coverage table.\n\n" +
		"Drift compares fingerprints taken within this process only, so the\n" +
		"Drift column shows \"-\" unless --rounds is 2 or more.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := scraper.FromConfig(cfg, quotes.SourceHeaders())
		defer sc.Close()
		svc := quotes.NewService(sc, cfg.Location)
		return runProbe(cmd.Context(), svc, sc, probeRounds, os.Stdout)
	},
}

// sourceStats is what the probe reads back from the scraper per source.
type sourceStats interface {
	EngineFor(source string) string
	LastDrift(source string) (drift.Observation, bool)
}

func runProbe(ctx context.Context, svc *quotes.Service, stats sourceStats, rounds int, w io.Writer) error {
	if rounds < 1 {
		rounds = 1
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Round", "Route", "Engine", "Elapsed", "Fields", "Drift"})

	for round := 1; round <= rounds; round++ {
		for _, route := range svc.Routes() {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res := route.Run(ctx)
			elapsed := time.Since(start).Round(time.Millisecond)

			resolved, total := quotes.Coverage(res)
			engines, distance := "", "-"
			for _, src := range quotes.Sources {
				if src.Route != route.Path {
					continue
				}
				if engines != "" {
					engines += "+"
				}
				engines += stats.EngineFor(src.ID)
				if obs, ok := stats.LastDrift(src.ID); ok && obs.HasPrevious {
					distance = fmt.Sprint(obs.Distance)
				}
			}

			t.AppendRow(table.Row{
				round,
				route.Path,
				engines,
				elapsed,
				fmt.Sprintf("%d/%d", resolved, total),
				distance,
			})
		}
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
