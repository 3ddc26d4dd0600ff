package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// snippetLength bounds the text preview printed per result.
const snippetLength = 160

var (
	searchLimit  int
	searchOffset int
	searchTypes  []string
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the published index",
	Long: `Queries the documents published by the last successful cycle of each
type. Results never mix documents from an in-progress cycle.

Examples:
  sercha-indexer search "deploy pipeline"
  sercha-indexer search --type techdocs --type api -n 5 "auth"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "number of results to skip")
	searchCmd.Flags().StringArrayVarP(&searchTypes, "type", "t", nil, "restrict to a document type (repeatable)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	return withServices(cmd.Context(), func(ctx context.Context, svc *Services) error {
		opts := domain.SearchOptions{
			Types:  searchTypes,
			Limit:  searchLimit,
			Offset: searchOffset,
		}

		results, err := svc.Search.Search(ctx, args[0], opts)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if searchJSON {
			return outputSearchJSON(cmd, results)
		}
		outputSearchTable(cmd, results)
		return nil
	})
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	if results == nil {
		results = []domain.SearchResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		doc := results[i].Document
		title := doc.Title
		if title == "" {
			title = doc.Location
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, results[i].Score)
		cmd.Printf("      %s  %s\n", results[i].Type, doc.Location)
		if snippet := snippet(doc.Text); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "…"
}
