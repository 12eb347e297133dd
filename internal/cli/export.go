package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export conversations as JSON",
		Long:  "Export conversations as a JSON array of transcripts. Pick one with --chat.",
		Run:   runExport,
	}

	cmd.Flags().String("chat", "", "Only this conversation")
	cmd.Flags().IntP("limit", "l", 100000, "Max conversations when --chat is not set")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	chatID, _ := cmd.Flags().GetString("chat")
	limit, _ := cmd.Flags().GetInt("limit")

	svc, s := openService(cmd.Context())
	defer s.Close()

	transcripts, err := svc.Export(cmd.Context(), chatID, limit)
	if err != nil {
		exitErr("export", err)
	}

	printJSON(transcripts)
}
