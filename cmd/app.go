/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
)

// appCmd represents the app command
var appCmd = &cobra.Command{
	Use:   "app",
	Short: "used to run the hydrant service",
	Long: `The hydrant service serves the built site and accepts the build webhook,
optionally updating the data every hour (this command is not ran directly)`,
}

func init() {
	rootCmd.AddCommand(appCmd)
}
