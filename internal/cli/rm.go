package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete a conversation with all its messages and parts",
		Run:   runRm,
	}

	cmd.Flags().String("chat", "", "Conversation ID (required)")
	cmd.MarkFlagRequired("chat")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	chatID, _ := cmd.Flags().GetString("chat")

	s, _, log := openStore(cmd.Context())
	defer s.Close()

	if err := s.DeleteConversation(cmd.Context(), chatID); err != nil {
		exitErr("rm", err)
	}
	log.Info("conversation deleted", "conversation_id", chatID)

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"chat":%q}`+"\n", chatID)
}
