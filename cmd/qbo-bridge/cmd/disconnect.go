package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/qbo-bridge/internal/config"
	"github.com/pigeonworks-llc/qbo-bridge/internal/store"
)

// disconnectCmd represents the disconnect command.
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Delete the stored QuickBooks credential",
	Long: `Delete the stored OAuth credential for the configured user.

The company stays authorized on the Intuit side until access is revoked
there; this only forgets the local tokens.

Example:
  qbo-bridge disconnect`,
	Run: runDisconnect,
}

func runDisconnect(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	creds, err := store.Open(cfg.DBPath)
	exitOnError(err, "failed to open credential database")
	defer creds.Close()

	exitOnError(creds.Delete(context.Background(), cfg.UserID), "failed to delete credential")

	fmt.Println("Disconnected. Stored tokens have been deleted.")
	slog.Info("Credential deleted", "user", cfg.UserID)
}
