package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/siftarr/siftarr/internal/config"
	"github.com/siftarr/siftarr/internal/httpclient"
	"github.com/siftarr/siftarr/internal/origin"
	"github.com/siftarr/siftarr/internal/probe"
	"github.com/siftarr/siftarr/internal/service"
)

var raceCurrentOrigin string

var raceCmd = &cobra.Command{
	Use:   "race <title>",
	Short: "Race configured origins for a title",
	Long: `Probe every enabled origin for the given title and print the ranked
results. Useful for checking origin health and latency from the CLI
without starting the server.`,
	Args: cobra.ExactArgs(1),
	RunE: runRace,
}

func init() {
	raceCmd.Flags().StringVar(&raceCurrentOrigin, "current", "", "origin id currently playing, pinned first in the ranking")
	rootCmd.AddCommand(raceCmd)
}

func runRace(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	registry, err := origin.NewRegistry(cfg.Origins, nil, logger)
	if err != nil {
		return fmt.Errorf("building origin registry: %w", err)
	}

	client := httpclient.New(httpclient.FromAppConfig(cfg.HTTP, logger))
	prober := probe.NewProber(origin.NewAdapter(client), client, cfg.Probe.StepTimeout, logger)
	coordinator := probe.NewCoordinator(prober, cfg.Probe.RaceDeadline, logger)
	cache := probe.NewResultCache(cfg.Probe.CacheTTL, cfg.Probe.CacheMaxEntries)
	races := service.NewRaceService(registry, coordinator, cache, cfg.Probe.SwitchThreshold, logger)

	out, err := races.Race(context.Background(), args[0], raceCurrentOrigin)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORIGIN\tNAME\tAVAILABLE\tLATENCY\tERROR")
	for _, r := range out.Results {
		latency := "-"
		if !math.IsInf(r.LatencyMillis, 1) {
			latency = fmt.Sprintf("%.0fms", r.LatencyMillis)
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", r.OriginID, r.OriginName, r.Available, latency, r.Error)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if out.Best != nil {
		fmt.Printf("\nbest: %s (%s)\n", out.Best.OriginID, out.Best.OriginName)
	} else {
		fmt.Println("\nno origin available")
	}
	if raceCurrentOrigin != "" {
		fmt.Printf("switch recommended: %t\n", out.SwitchRecommended)
	}
	return nil
}
