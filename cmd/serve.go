/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sipb/hydrant/collection"
	"github.com/sipb/hydrant/collection/services"
	"github.com/sipb/hydrant/data"
	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	"github.com/sipb/hydrant/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the site and webhook server",
	Long: `Serves the unpacked site and the /notify build webhook. With --collect the
data is also updated every --every.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.WithFields(log.Fields{
			logginghelpers.FieldJob: "serve",
		})
		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			logger.Fatal(err)
		}
		collect, err := cmd.Flags().GetBool("collect")
		if err != nil {
			logger.Fatal(err)
		}
		every, err := cmd.Flags().GetDuration("every")
		if err != nil {
			logger.Fatal(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		config := data.GetConfig()
		if config.WebhookSecret == "" {
			logger.Warn("HYDRANT_WEBHOOK_SECRET is not set, every build notification will be rejected")
		}
		client := services.NewClient(logger, services.DefaultClientConfig)

		if collect {
			orchestrator := collection.NewOrchestrator(log.StandardLogger(), data.NewStore(config.DataDir), os.Stdout)
			scheduler := collection.NewScheduler(orchestrator, config, func() []collection.Service {
				return collection.DefaultServices(services.NewClient(logger, services.DefaultClientConfig), config)
			})
			scheduler.SetInterval(every)
			go scheduler.Run(ctx, logger.WithField(logginghelpers.FieldJob, "update"))
		}

		slogger := slog.Default()
		router := server.NewRouter(config, client, slogger)
		if err := server.Serve(ctx, router, port, slogger); err != nil {
			logger.Fatal(err)
		}
	},
}

func init() {
	appCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", server.DEFAULT_PORT, "port to listen on")
	serveCmd.Flags().Bool("collect", false, "also run the update on an interval")
	serveCmd.Flags().Duration("every", collection.UPDATE_INTERVAL, "how often --collect updates")
}
