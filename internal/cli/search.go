package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search stored text and reasoning by keyword",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("chat", "", "Only this conversation")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	chatID, _ := cmd.Flags().GetString("chat")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, _, _ := openStore(cmd.Context())
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		ConversationID: chatID,
		Query:          query,
		Limit:          limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	printJSON(results)
}
