// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the aikokb CLI. It opens a knowledge
// base artifact and answers about, topics, and search queries against it,
// and builds, exports, and fetches artifacts.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/aikokb/internal/kb"
	"github.com/pdiddy/aikokb/internal/log"
	"github.com/pdiddy/aikokb/internal/secrets"
	"github.com/pdiddy/aikokb/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg holds the merged configuration after PersistentPreRunE.
var cfg types.Config

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the aikokb CLI.
var rootCmd = &cobra.Command{
	Use:   "aikokb",
	Short: "Query the Aikoinfinity knowledge base",
	Long: `aikokb opens a knowledge base artifact (default: Aikoinfinity.ptl) and
answers questions about it: what it is about, which topics it covers, and
which documents best match a search.

Artifacts are built from a directory of YAML sources with "build", can be
exported back to YAML or JSON with "export", and downloaded from a published
location with "fetch". "demo" runs the about / topics / search walkthrough.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			cfg.Log.Level = "debug"
		}

		logger, err := log.New(cfg.Log)
		if err != nil {
			return err
		}
		log.SetLogger(logger)
		if used := viper.ConfigFileUsed(); used != "" {
			log.Debug("using config file", "path", used)
		}

		s, err := secrets.Load(cfg.SecretsDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			log.Debug("loaded secrets", "keys", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./aikokb.yaml or ~/.config/aikokb/aikokb.yaml)")
	flags.String("artifact", "Aikoinfinity.ptl", "knowledge base artifact file")
	flags.Int("max-results", 20, "results returned when a search does not set k")
	flags.String("secrets-dir", ".secrets", "directory of plain-text secret files")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.BoolP("verbose", "v", false, "shorthand for --log-level debug")

	viper.BindPFlag("artifact", flags.Lookup("artifact"))
	viper.BindPFlag("max_results", flags.Lookup("max-results"))
	viper.BindPFlag("secrets_dir", flags.Lookup("secrets-dir"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
}

func setDefaults() {
	viper.SetDefault("artifact", "Aikoinfinity.ptl")
	viper.SetDefault("source_dir", "knowledge/source")
	viper.SetDefault("max_results", 20)
	viper.SetDefault("secrets_dir", ".secrets")
	viper.SetDefault("fetch.url", "")
	viper.SetDefault("fetch.timeout", 30*time.Second)
	viper.SetDefault("fetch.user_agent", "aikokb/"+version)
	viper.SetDefault("fetch.max_retries", 5)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("aikokb")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "aikokb"))
		}
	}

	viper.SetEnvPrefix("AIKOKB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", cfgFile, err)
		}
	}
}

// openKB opens the configured artifact read-only.
func openKB() (*kb.KB, error) {
	return kb.Open(cfg.KnowledgeBase)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
