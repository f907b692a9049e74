package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Rebuild the index from a documents directory",
	Long: `Replaces the whole index with fragments from every .txt, .md and .log
file under the directory (documents.dir when omitted). Unreadable files
are reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dir := a.Config.Documents.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	report, err := a.Ingest.IngestDirectory(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if ingestJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Indexed %d fragments from %d files in %s\n", report.Fragments, report.Files, report.Duration.Round(time.Millisecond))
	for _, skipped := range report.Skipped {
		fmt.Fprintf(out, "  skipped %s\n", skipped.Error())
	}
	return nil
}
