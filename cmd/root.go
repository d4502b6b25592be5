// Package cmd is the protpred command line: serve, train and predict.
package cmd

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"protpred/config"
	"protpred/logging"
)

const defaultConfigFile = "config.yaml"

var configPath string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "protpred",
	Short: "Classify protein sequences as membrane-bound or soluble",
	Long: `Classify amino acid sequences as membrane-bound or soluble, either with a
hydrophobicity threshold or with a logistic regression model trained offline.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config (defaults to ./config.yaml when present)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

// setup loads the config and builds the logger every subcommand shares.
func setup() (*config.Config, *zap.Logger, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
