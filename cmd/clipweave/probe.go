package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipweave/internal/clip"
	"go.klb.dev/clipweave/internal/hub"
	"go.klb.dev/clipweave/internal/pipeline"
)

func newProbeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Discover clipboards and show which ones would be synchronised",
		Long: `Runs discovery and deduplication once and prints every clipboard found.

Deduplication writes marker values into the clipboards it compares; the
first non-empty value found is written back to every clipboard afterwards.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runProbe(v) },
	}

	cmd.Flags().Bool("json", false, "output JSON")
	addDiscoveryFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

type probeResult struct {
	Kind      string `json:"kind"`
	Display   string `json:"display"`
	Canonical bool   `json:"canonical"`
	Size      int    `json:"size_bytes"`
}

func runProbe(v *viper.Viper) error {
	log := setupLogging(v)
	kinds, err := parseKinds(v.GetStringSlice("backends"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeout := v.GetDuration("helper-timeout")
	p := pipeline.New(pipeline.Config{
		Kinds:    kinds,
		Hybrid:   v.GetBool("hybrid"),
		MaxIndex: v.GetInt("max-index"),
		Timeout:  timeout,
	}, nil, log)

	b := clip.NewBackends(timeout)
	defer b.Close()

	set, err := p.Discover(ctx, b)
	if err != nil {
		return err
	}
	if err := hub.New(set.Endpoints, hub.Options{Logger: log}).Sync(ctx, set.Seed); err != nil {
		return fmt.Errorf("restore clipboards: %w", err)
	}

	canonical := make(map[clip.Endpoint]bool, len(set.Endpoints))
	for _, ep := range set.Endpoints {
		canonical[ep] = true
	}
	results := make([]probeResult, len(set.Candidates))
	for i, c := range set.Candidates {
		results[i] = probeResult{
			Kind:      c.Endpoint.Kind().String(),
			Display:   c.Endpoint.Display(),
			Canonical: canonical[c.Endpoint],
			Size:      len(c.Initial),
		}
	}

	if v.GetBool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No clipboards found.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "KIND\tDISPLAY\tSYNCED\tSIZE\n")
	_, _ = fmt.Fprintf(tw, "----\t-------\t------\t----\n")
	for _, r := range results {
		synced := "duplicate"
		if r.Canonical {
			synced = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.Kind, r.Display, synced, r.Size)
	}
	return tw.Flush()
}
