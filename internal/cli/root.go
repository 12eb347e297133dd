// Package cli implements the agent-chat CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/chat"
	"github.com/rcliao/agent-chat/internal/config"
	"github.com/rcliao/agent-chat/internal/ids"
	"github.com/rcliao/agent-chat/internal/logger"
	"github.com/rcliao/agent-chat/internal/model"
	"github.com/rcliao/agent-chat/internal/store"
)

var (
	configPath string
	dbPath     string
	driverFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-chat",
	Short: "Durable message-part storage for AI chat",
	Long:  "Persist streamed AI chat turns part by part and rebuild conversations exactly. SQLite or PostgreSQL backed.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "YAML config file (optional)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite database path (default: $AGENT_CHAT_DB or ~/.agent-chat/chat.db)")
	RootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Store driver: sqlite or postgres (default: $AGENT_CHAT_DRIVER or sqlite)")
}

// loadConfig reads config and applies flag overrides, which win over
// everything else.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if driverFlag != "" {
		cfg.Store.Driver = driverFlag
	}
	return cfg, nil
}

func openStore(ctx context.Context) (store.Store, *config.Config, *slog.Logger) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	log := logger.New(cfg.Logging)

	s, err := store.Open(ctx, cfg)
	if err != nil {
		exitErr("open store", err)
	}
	log.Debug("store opened", "driver", cfg.Store.Driver)
	return s, cfg, log
}

// openService opens the configured store and wires a chat service on top.
// Callers close the returned store.
func openService(ctx context.Context) (*chat.Service, store.Store) {
	s, cfg, log := openStore(ctx)
	tools := model.NewToolRegistry(cfg.Tools...)
	return chat.NewService(s, ids.New(), tools, log), s
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
