package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/explore"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/loader"
	"github.com/spf13/cobra"
)

func newExploreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Summarize the cleaned reviews: moments, ABV correlation and aspect PCA",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			reviews, _, err := loader.Load(cmd.Context(), cfg.Input.Path, loader.Options{
				Delimiter:  []rune(cfg.Input.Delimiter)[0],
				MinABV:     cfg.Cleaning.MinABV,
				SampleSize: cfg.Cleaning.SampleSize,
				Seed:       cfg.Cleaning.Seed,
			})
			if err != nil {
				return err
			}
			summary, err := explore.Summarize(reviews)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary, opts.jsonOutput)
		},
	}
}

func printSummary(out io.Writer, s *explore.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	fmt.Fprintf(out, "%d reviews\n\n", s.Records)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tMEAN\tSTD\tMIN\tMAX\tCORR(ABV)")
	for _, v := range s.Variables {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.2f\t%.2f\t%.3f\n", v.Name, v.Mean, v.StdDev, v.Min, v.Max, v.CorrABV)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "PC\tVAR RATIO\t%s\n", strings.ToUpper(strings.Join(loader.AspectNames[:], "\t")))
	for i, c := range s.Components {
		fmt.Fprintf(tw, "%d\t%.3f", i+1, c.VarianceRatio)
		for _, l := range c.Loadings {
			fmt.Fprintf(tw, "\t%+.3f", l)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
