package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kyoo-project/scanner/internal/guess"
)

var parseCmd = &cobra.Command{
	Use:   "parse <path>",
	Short: "Parse a file path locally (no daemon required)",
	Long: `Runs the same filename guesser scannerd uses against a path,
without touching the catalog or the provider network.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

// parseResult is the JSON-friendly shape of a guess.Guess.
type parseResult struct {
	Title      string             `json:"title"`
	Kind       string             `json:"kind"`
	ExtraKind  string             `json:"extraKind,omitempty"`
	Years      []int              `json:"years,omitempty"`
	Episodes   []guess.EpisodeRef `json:"episodes,omitempty"`
	ExternalID map[string]string  `json:"externalId,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	g, err := guess.Parse(args[0], nil)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	result := parseResult{
		Title:      g.Title,
		Kind:       string(g.Kind),
		ExtraKind:  g.ExtraKind,
		Years:      g.Years,
		Episodes:   g.Episodes,
		ExternalID: g.ExternalID,
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Title:   %s\n", result.Title)
	fmt.Printf("Kind:    %s\n", result.Kind)
	if result.ExtraKind != "" {
		fmt.Printf("Extra:   %s\n", result.ExtraKind)
	}
	if len(result.Years) > 0 {
		fmt.Printf("Years:   %v\n", result.Years)
	}
	for _, ep := range result.Episodes {
		if ep.Season != nil {
			fmt.Printf("Episode: S%02dE%02d\n", *ep.Season, ep.Episode)
		} else {
			fmt.Printf("Episode: absolute #%d\n", ep.Episode)
		}
	}
	for provider, id := range result.ExternalID {
		fmt.Printf("%-12s %s\n", provider+":", id)
	}
	return nil
}
