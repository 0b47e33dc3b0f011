// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/aikokb/internal/fetch"
	"github.com/pdiddy/aikokb/internal/secrets"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a published artifact",
	Long: `Fetch downloads the artifact from --url (or fetch.url in the config) and
installs it at --artifact once it opens as a valid knowledge base. A bearer
token is read from the kb-token secret or AIKOKB_KB_TOKEN when present.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fc := cfg.Fetch
		fc.Token = loadedSecrets.Get(secrets.KBToken)

		res, err := fetch.Download(cmd.Context(), fc, cfg.KnowledgeBase.ArtifactPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fetched %s (%d bytes, %d topics, %d documents)\n",
			res.Path, res.Bytes, res.Manifest.Topics, res.Manifest.Documents)
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("url", "", "artifact URL")
	fetchCmd.Flags().Duration("timeout", 30*time.Second, "HTTP timeout")
	fetchCmd.Flags().Int("max-retries", 5, "retries on 429/503")
	viper.BindPFlag("fetch.url", fetchCmd.Flags().Lookup("url"))
	viper.BindPFlag("fetch.timeout", fetchCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("fetch.max_retries", fetchCmd.Flags().Lookup("max-retries"))

	rootCmd.AddCommand(fetchCmd)
}
