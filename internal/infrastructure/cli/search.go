package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Ranks fragments with bm25 and prints the best matches.
The query is matched literally: quotes, operators and column filters
have no special meaning.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default search.top_k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	snippetStyle = lipgloss.NewStyle().PaddingLeft(6)
)

const snippetRunes = 240

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	hits, err := a.Query.Search(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	printHits(cmd.OutOrStdout(), hits)
	return nil
}

func printHits(w io.Writer, hits []entities.SearchHit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	for i, h := range hits {
		fmt.Fprintf(w, "  [%d] %s %s\n", i+1, titleStyle.Render(h.Source), scoreStyle.Render(fmt.Sprintf("(%.2f)", h.Score)))
		fmt.Fprintln(w, snippetStyle.Render(snippet(h.Content)))
		fmt.Fprintln(w)
	}
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= snippetRunes {
		return s
	}
	return string(r[:snippetRunes]) + "..."
}
