package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/redis"
	"github.com/spf13/cobra"
)

const slowPing = time.Second

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the input file and every enabled sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			report := newChecker(cfg).Run(ctx)
			if err := printReport(cmd.OutOrStdout(), report, opts.jsonOutput); err != nil {
				return err
			}
			if report.Status == health.StatusDown {
				return fmt.Errorf("%w: health status %s", apperrors.ErrExport, report.Status)
			}
			return nil
		},
	}
}

// newChecker registers one probe per configured dependency. Each probe opens
// and closes its own connection.
func newChecker(cfg *config.Config) *health.Checker {
	c := health.NewChecker()
	c.Register("input", health.PingCheck(func(context.Context) error {
		_, err := os.Stat(cfg.Input.Path)
		return err
	}, 0))
	if cfg.Postgres.Enabled {
		c.Register("postgres", health.PingCheck(func(ctx context.Context) error {
			client, err := postgres.New(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Ping(ctx)
		}, slowPing))
	}
	if cfg.Redis.Enabled {
		c.Register("redis", health.PingCheck(func(ctx context.Context) error {
			client, err := redis.NewClient(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Ping(ctx)
		}, slowPing))
	}
	if cfg.Kafka.Enabled {
		c.Register("kafka", health.PingCheck(func(ctx context.Context) error {
			return kafka.Ping(ctx, cfg.Kafka.Brokers)
		}, slowPing))
	}
	return c
}

func printReport(out io.Writer, report health.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintf(out, "status: %s\n\n", report.Status)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPONENT\tSTATUS\tLATENCY\tMESSAGE")
	for _, name := range report.Names() {
		comp := report.Components[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, comp.Status, comp.Latency, comp.Message)
	}
	return tw.Flush()
}
