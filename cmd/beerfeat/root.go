package main

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/pipeline.yaml"

// rootOptions are shared by every subcommand.
type rootOptions struct {
	configPath string
	input      string
	jsonOutput bool
}

// load reads the config file, applies flag overrides and sets up logging.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.input != "" {
		cfg.Input.Path = o.input
	}
	if cfg.Input.Path == "" {
		return nil, fmt.Errorf("%w: input.path is required (set it in the config, BRF_INPUT_PATH or --input)", apperrors.ErrInvalidConfig)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "beerfeat",
		Short: "Turn beer reviews into tf-idf features",
		Long: `beerfeat cleans a beer review export, extracts unigram tf-idf features from the
review text and writes a document-term matrix with ABV targets and a stratified
train/test split.

Examples:
  beerfeat run --config configs/pipeline.yaml
  beerfeat run --input reviews.csv --json
  beerfeat explore --input reviews.csv
  beerfeat check`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pflags := root.PersistentFlags()
	pflags.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the YAML config file")
	pflags.StringVarP(&opts.input, "input", "i", "", "review file, overrides input.path")
	pflags.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newRunCmd(opts),
		newExploreCmd(opts),
		newCheckCmd(opts),
	)
	return root
}
