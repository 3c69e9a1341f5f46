package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/export"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the feature pipeline and export the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cmd.OutOrStdout(), cfg, runID, opts.jsonOutput)
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run identifier (default: random UUID)")
	return cmd
}

func runPipeline(ctx context.Context, out io.Writer, cfg *config.Config, runID string, asJSON bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	if cfg.Metrics.Enabled {
		mux := metrics.NewMux(reg)
		mux.Handle("/readyz", newChecker(cfg).ReadyHandler())
		shutdown := metrics.StartServer(cfg.Metrics.Port, mux)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Warn("metrics server shutdown", "error", err)
			}
		}()
	}

	sinks, err := openSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer export.CloseAll(sinks)

	runOpts := []pipeline.Option{pipeline.WithMetrics(m), pipeline.WithRunID(runID)}
	if len(sinks) > 0 {
		runOpts = append(runOpts, pipeline.WithExporter(export.NewExporter(m, resilience.RetryConfig{}, sinks...)))
	}
	res, err := pipeline.NewRunner(cfg, runOpts...).Run(ctx)
	if err != nil {
		return err
	}
	return printRun(out, res, sinks, asJSON)
}

// openSinks connects every enabled sink. Local file sinks are enabled by a
// non-empty output name.
func openSinks(ctx context.Context, cfg *config.Config) ([]export.Sink, error) {
	var sinks []export.Sink
	fail := func(name string, err error) ([]export.Sink, error) {
		export.CloseAll(sinks)
		return nil, apperrors.Export(name, 0, err)
	}

	if cfg.Output.CSV != "" {
		sinks = append(sinks, &export.CSVSink{Path: filepath.Join(cfg.Output.Dir, cfg.Output.CSV)})
	}
	if cfg.Output.MatrixFile != "" {
		sinks = append(sinks, &export.MatrixFileSink{Dir: cfg.Output.Dir, File: cfg.Output.MatrixFile})
	}
	if cfg.Postgres.Enabled {
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fail("postgres", err)
		}
		sinks = append(sinks, export.NewPostgresSink(client))
	}
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fail("redis", err)
		}
		sinks = append(sinks, export.NewRedisSink(client, cfg.Redis.FeatureTTL))
	}
	if cfg.Kafka.Enabled {
		sinks = append(sinks, export.NewKafkaSink(
			kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.FeatureRows),
			kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RunComplete),
		))
	}
	return sinks, nil
}

type runReport struct {
	RunID     string                  `json:"run_id"`
	Documents int                     `json:"documents"`
	Terms     int                     `json:"terms"`
	Train     int                     `json:"train"`
	Test      int                     `json:"test"`
	Stages    []pipeline.StageSummary `json:"stages"`
	Sinks     []string                `json:"sinks"`
}

func printRun(out io.Writer, res *pipeline.Result, sinks []export.Sink, asJSON bool) error {
	docs, terms := res.Matrix.Dims()
	report := runReport{
		RunID:     res.RunID,
		Documents: docs,
		Terms:     terms,
		Train:     len(res.Partition.Train),
		Test:      len(res.Partition.Test),
		Stages:    res.Stages,
		Sinks:     make([]string, 0, len(sinks)),
	}
	for _, s := range sinks {
		report.Sinks = append(report.Sinks, s.Name())
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "run %s: %d documents x %d terms, %d train / %d test\n\n",
		report.RunID, report.Documents, report.Terms, report.Train, report.Test)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tIN\tOUT\tDURATION")
	for _, s := range report.Stages {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Name, s.RecordsIn, s.RecordsOut, s.Duration.Round(time.Microsecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(report.Sinks) > 0 {
		fmt.Fprintf(out, "\nexported to: %v\n", report.Sinks)
	}
	return nil
}
