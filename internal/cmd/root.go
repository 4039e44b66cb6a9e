// Package cmd provides the command-line interface for evsim.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.StandardLogger()

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "evsim",
	Short: "evsim runs and inspects discrete-event network simulations.",
	Long: `evsim loads a JSON topology, drives its Simulation to completion or ` +
		`to a wall-clock deadline, and can expose a read-only monitoring ` +
		`dashboard over the running instance.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warn("failed to load .env")
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
