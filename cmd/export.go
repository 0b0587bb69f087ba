/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"errors"
	"io/fs"
	"os"

	"github.com/natefinch/atomic"
	"github.com/sipb/hydrant/collection"
	"github.com/sipb/hydrant/collection/services/locations"
	"github.com/sipb/hydrant/data"
	"github.com/sipb/hydrant/data/calendar"
	classentry "github.com/sipb/hydrant/data/class-entry"
	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "export packaged classes to other formats",
	Long:  `Exports classes from a packaged term (this command is not ran directly)`,
}

// icsCmd represents the ics command
var icsCmd = &cobra.Command{
	Use:   "ics CLASS...",
	Short: "write the weekly meetings of classes as an iCalendar file",
	Long: `Writes an iCalendar file with one weekly event per meeting. A class is given
as its number (the first section of every kind) or as NUMBER/KIND/INDEX such as
6.1010/recitation/2. Holidays and the Monday schedule day come from latestTerm.json.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.WithFields(log.Fields{
			logginghelpers.FieldJob: "export",
		})
		out, err := cmd.Flags().GetString("out")
		if err != nil {
			logger.Fatal(err)
		}
		config := data.GetConfig()
		target, err := getTarget(cmd, config)
		if err != nil {
			logger.Fatalf("Could not pick a term: %v", err)
		}

		var selections []calendar.Selection
		for _, arg := range args {
			sel, err := calendar.ParseSelection(arg)
			if err != nil {
				logger.Fatal(err)
			}
			selections = append(selections, sel)
		}

		var pkg struct {
			TermInfo classentry.TermInfo       `json:"termInfo"`
			Classes  map[string]calendar.Class `json:"classes"`
		}
		public := data.NewStore(config.PublicDir)
		if err := public.Read(collection.PackageName(target), &pkg); err != nil {
			logger.Fatalf("Could not read the package, run `hydrant package` first: %v", err)
		}

		buildings := map[string]classentry.BuildingInfo{}
		err = data.NewStore(config.DataDir).Read(locations.OutputName, &buildings)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Fatal(err)
		}
		if err != nil {
			logger.Warn("No locations snapshot, events will have no coordinates")
		}

		exporter, err := calendar.NewExporter(pkg.TermInfo, buildings)
		if err != nil {
			logger.Fatal(err)
		}
		cal, err := exporter.Calendar(pkg.Classes, selections)
		if err != nil {
			logger.Fatal(err)
		}

		var buf bytes.Buffer
		if err := calendar.Write(&buf, cal); err != nil {
			logger.Fatal(err)
		}
		if out == "" {
			os.Stdout.Write(buf.Bytes())
			return
		}
		if err := atomic.WriteFile(out, &buf); err != nil {
			logger.Fatalf("Could not write %s: %v", out, err)
		}
		logger.Infof("Wrote %d classes to %s", len(selections), out)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(icsCmd)
	addTermFlag(icsCmd)
	icsCmd.Flags().String("out", "", "file to write instead of stdout")
}
