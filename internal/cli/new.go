package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/chat"
)

func init() {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a conversation with a fresh ID",
		Run:   runNew,
	}

	RootCmd.AddCommand(cmd)
}

func runNew(cmd *cobra.Command, args []string) {
	id, err := chat.NewConversationID()
	if err != nil {
		exitErr("new", err)
	}

	svc, s := openService(cmd.Context())
	defer s.Close()

	if _, err := svc.EnsureConversation(cmd.Context(), id); err != nil {
		exitErr("new", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"chat":%q}`+"\n", id)
}
