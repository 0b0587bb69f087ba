/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/sipb/hydrant/collection"
	"github.com/sipb/hydrant/data"
	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// packageCmd represents the package command
var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "merge the snapshots into the front end json",
	Long: `Merges the fireroad, catalog, CI-M and PE&W snapshots with the override tables
and writes the result to the public directory (latest.json for the semester).`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.WithFields(log.Fields{
			logginghelpers.FieldJob: "package",
		})
		config := data.GetConfig()
		target, err := getTarget(cmd, config)
		if err != nil {
			logger.Fatalf("Could not pick a term: %v", err)
		}
		_, err = collection.Publish(
			logger.WithField(logginghelpers.FieldTerm, target.Term.UrlName()),
			data.NewStore(config.DataDir),
			data.NewStore(config.PublicDir),
			target,
			config.OverridesDir,
		)
		if err != nil {
			logger.Fatalf("Packaging failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(packageCmd)
	addTermFlag(packageCmd)
}
