package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
)

var askNoRAG bool

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask one question",
	Long: `Sends one message to the LLM. Retrieved fragments are added to the
prompt unless --no-rag is given or the message is short. Messages starting
with filesystem.read: or fetch.get: run that tool instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoRAG, "no-rag", false, "do not retrieve fragments")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.Query.Ask(cmd.Context(), &entities.ChatRequest{
		Message: strings.Join(args, " "),
		UseRAG:  !askNoRAG,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if resp.Tool != nil {
		fmt.Fprintln(out, resp.Tool.Content)
		return nil
	}
	fmt.Fprintln(out, resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, scoreStyle.Render("Sources:"))
		for _, h := range resp.Sources {
			fmt.Fprintf(out, "  - %s\n", h.Source)
		}
	}
	return nil
}
