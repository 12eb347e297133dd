package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "persist [message-json]",
		Short: "Store a finished chat turn",
		Long: `Store one UI message ({"id","role","parts":[...]}) in a conversation.
The message can be a positional arg or piped via stdin. The conversation is
created on first use.`,
		Run: runPersist,
	}

	cmd.Flags().String("chat", "", "Conversation ID (required)")
	cmd.MarkFlagRequired("chat")

	RootCmd.AddCommand(cmd)
}

func runPersist(cmd *cobra.Command, args []string) {
	chatID, _ := cmd.Flags().GetString("chat")

	// Get message: positional arg first, then check stdin
	var raw string
	if len(args) > 0 {
		raw = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			raw = string(b)
		}
	}

	if strings.TrimSpace(raw) == "" {
		exitErr("persist", fmt.Errorf("message JSON is required (positional arg or stdin)"))
	}

	var msg model.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		exitErr("parse message", err)
	}

	svc, s := openService(cmd.Context())
	defer s.Close()

	row, err := svc.PersistMessage(cmd.Context(), chatID, msg)
	if err != nil {
		exitErr("persist", err)
	}

	b, _ := json.Marshal(row)
	fmt.Println(string(b))
}
