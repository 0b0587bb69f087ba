package cmd

import (
	"os"

	"github.com/sipb/hydrant/collection/services"
	"github.com/sipb/hydrant/data"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hydrant",
	Short: "hydrant collects MIT class schedules for the hydrant planner",
	Long: `Hydrant scrapes fireroad, the subject catalog, the CI-M list, campus locations
and PE&W listings into per source snapshots and packages them into the json the
front end loads. It can also serve the built site and the build webhook.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelName, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}
		level, err := log.ParseLevel(levelName)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "logrus level, trace shows every request")
}

// addTermFlag adds --term for commands that work on one of the two terms in
// latestTerm.json.
func addTermFlag(cmd *cobra.Command) {
	cmd.Flags().String("term", string(services.Semester), "which term to use, sem or presem")
}

func getTarget(cmd *cobra.Command, config data.Config) (services.Target, error) {
	termInput, err := cmd.Flags().GetString("term")
	if err != nil {
		return services.Target{}, err
	}
	kind, err := services.ParseTermKind(termInput)
	if err != nil {
		return services.Target{}, err
	}
	latest, err := data.ReadLatestTerm(config.PublicDir)
	if err != nil {
		return services.Target{}, err
	}
	return services.NewTarget(latest, kind)
}
