/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"os"

	"github.com/natefinch/atomic"
	"github.com/sipb/hydrant/collection/overrides"
	"github.com/sipb/hydrant/collection/overrides/eecs"
	"github.com/sipb/hydrant/collection/overrides/mathdept"
	"github.com/sipb/hydrant/collection/services"
	"github.com/sipb/hydrant/data"
	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// overridesCmd represents the overrides command
var overridesCmd = &cobra.Command{
	Use:   "overrides math|eecs",
	Short: "generate overrides from a department page",
	Long: `Scrapes the math department class list or the EECS subject updates into
overrides, checking every section it builds decodes back to the same meetings.
The result is printed as json, or as toml ready for overrides.toml.d with --toml.`,
	ValidArgs: []string{"math", "eecs"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.WithFields(log.Fields{
			logginghelpers.FieldJob:    "overrides",
			logginghelpers.FieldSource: args[0],
		})
		asTOML, err := cmd.Flags().GetBool("toml")
		if err != nil {
			logger.Fatal(err)
		}
		out, err := cmd.Flags().GetString("out")
		if err != nil {
			logger.Fatal(err)
		}

		client := services.NewClient(logger, services.DefaultClientConfig)
		var generator overrides.Generator
		switch args[0] {
		case "math":
			generator = mathdept.New(client, "")
		case "eecs":
			target, err := getTarget(cmd, data.GetConfig())
			if err != nil {
				logger.Fatalf("Could not pick a term: %v", err)
			}
			generator, err = eecs.New(client, target.Term, "")
			if err != nil {
				logger.Fatal(err)
			}
		}

		generated, err := generator.Generate(logger, cmd.Context())
		if err != nil {
			logger.Fatalf("Could not generate overrides: %v", err)
		}
		logger.Infof("Generated overrides for %d subjects", len(generated))

		var buf bytes.Buffer
		if asTOML {
			err = overrides.WriteTOML(&buf, generated)
		} else {
			err = overrides.WriteJSON(&buf, generated)
		}
		if err != nil {
			logger.Fatal(err)
		}
		if out == "" {
			os.Stdout.Write(buf.Bytes())
			return
		}
		if err := atomic.WriteFile(out, &buf); err != nil {
			logger.Fatalf("Could not write %s: %v", out, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(overridesCmd)
	addTermFlag(overridesCmd)
	overridesCmd.Flags().Bool("toml", false, "print toml instead of json")
	overridesCmd.Flags().String("out", "", "file to write instead of stdout")
}
