package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Manage the library scan",
}

var scanRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Trigger a full library scan",
	RunE:  runScanRun,
}

var scanStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of the last scan",
	RunE:  runScanStatus,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.AddCommand(scanRunCmd)
	scanCmd.AddCommand(scanStatusCmd)
}

func runScanRun(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL, apiKey)
	if err := client.do("PUT", "/scan", nil); err != nil {
		return err
	}
	fmt.Println("scan started")
	return nil
}

func runScanStatus(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL, apiKey)
	var status scanStatus
	if err := client.do("GET", "/scan", &status); err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Printf("Running:    %v\n", status.Running)
	if status.LastStart != "" {
		fmt.Printf("Last start: %s\n", status.LastStart)
	}
	if status.LastEnd != "" {
		fmt.Printf("Last end:   %s\n", status.LastEnd)
	}
	if status.LastError != "" {
		fmt.Printf("Last error: %s\n", status.LastError)
	}
	return nil
}
