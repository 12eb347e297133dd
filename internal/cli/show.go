package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a conversation as UI messages",
		Run:   runShow,
	}

	cmd.Flags().String("chat", "", "Conversation ID (required)")
	cmd.Flags().Bool("user-turns", false, "Only print the number of user turns")
	cmd.MarkFlagRequired("chat")

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	chatID, _ := cmd.Flags().GetString("chat")
	userTurns, _ := cmd.Flags().GetBool("user-turns")

	svc, s := openService(cmd.Context())
	defer s.Close()

	if userTurns {
		n, err := svc.UserTurns(cmd.Context(), chatID)
		if err != nil {
			exitErr("show", err)
		}
		printJSON(map[string]any{"chat": chatID, "user_turns": n})
		return
	}

	history, err := svc.LoadConversation(cmd.Context(), chatID)
	if err != nil {
		exitErr("show", err)
	}
	printJSON(history)
}
