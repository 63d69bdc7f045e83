package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	serverURL  string
	apiKey     string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "scannerctl",
	Short: "CLI client for the media scanner daemon",
	Long: `scannerctl - operator CLI for the media scanner daemon

Trigger scans, check status, and parse release names locally.

Run 'scannerd' to start the daemon.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scannerctl %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:7666", "scannerd admin API URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "token", os.Getenv("SCANNERCTL_TOKEN"), "bearer token for the admin API")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("scannerctl {{.Version}}\n")

	rootCmd.AddCommand(versionCmd)
}
