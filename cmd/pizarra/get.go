package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agrodash/pizarra/quotes"
	"github.com/agrodash/pizarra/scraper"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <route>",
	Short: "Runs one quote route in-process and prints its JSON.",
	Long: "Runs one quote route in-process and prints its JSON.\n\nRoutes: " +
		"dolar-oficial, dolar-oficial-anterior, dolar-blue, granos, pizarra-bcr, clima.\n" +
		"The /api/ path form (/api/clima) is accepted too.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := scraper.FromConfig(cfg, quotes.SourceHeaders())
		defer sc.Close()
		return runGet(cmd.Context(), quotes.NewService(sc, cfg.Location), args[0], os.Stdout)
	},
}

func runGet(ctx context.Context, svc *quotes.Service, name string, w io.Writer) error {
	route, ok := svc.Route(name)
	if !ok {
		return fmt.Errorf("unknown route %q", name)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(route.Run(ctx))
}
