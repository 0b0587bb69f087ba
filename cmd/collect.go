/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/sipb/hydrant/collection"
	"github.com/sipb/hydrant/collection/services"
	"github.com/sipb/hydrant/data"
	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect [fireroad|catalog|cim|locations|pe|all]...",
	Short: "collect per source snapshots",
	Long: `Collects the named sources (all of them when none are given) for the chosen
term and writes one json snapshot per source into the data directory. A source
that can't be reached keeps its previous snapshot.`,
	ValidArgs: []string{"fireroad", "catalog", "cim", "locations", "pe", "all"},
	Args:      cobra.OnlyValidArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.WithFields(log.Fields{
			logginghelpers.FieldJob: "collect",
		})
		config := data.GetConfig()
		target, err := getTarget(cmd, config)
		if err != nil {
			logger.Fatalf("Could not pick a term: %v", err)
		}

		client := services.NewClient(logger, services.DefaultClientConfig)
		serviceEntries := collection.DefaultServices(client, config)
		selected := serviceEntries
		if len(args) > 0 && args[0] != "all" {
			selected = nil
			for _, name := range args {
				s, err := collection.ServiceByName(serviceEntries, name)
				if err != nil {
					logger.Fatal(err)
				}
				selected = append(selected, s)
			}
		}

		orchestrator := collection.NewOrchestrator(log.StandardLogger(), data.NewStore(config.DataDir), os.Stdout)
		if _, err := orchestrator.Run(cmd.Context(), target, selected...); err != nil {
			logger.Fatalf("Collection finished with failures: %v", err)
		}
	},
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "collect everything and package the semester",
	Long: `Runs what the hourly job runs: fireroad for the pre-semester, every source for
the semester and then packages the semester into the public directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.WithFields(log.Fields{
			logginghelpers.FieldJob: "update",
		})
		config := data.GetConfig()
		client := services.NewClient(logger, services.DefaultClientConfig)
		orchestrator := collection.NewOrchestrator(log.StandardLogger(), data.NewStore(config.DataDir), os.Stdout)
		scheduler := collection.NewScheduler(orchestrator, config, func() []collection.Service {
			return collection.DefaultServices(client, config)
		})
		if err := scheduler.Update(cmd.Context(), logger); err != nil {
			logger.Fatalf("Update failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(updateCmd)
	addTermFlag(collectCmd)
}
