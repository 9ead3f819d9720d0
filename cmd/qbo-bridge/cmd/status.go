package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/qbo-bridge/internal/config"
	"github.com/pigeonworks-llc/qbo-bridge/internal/store"
)

// statusCmd represents the status command.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the QuickBooks connection status",
	Long: `Display the state of the stored QuickBooks connection.

Shows:
- Whether a company is connected
- The connected realm id
- When the current access token expires

Token values themselves are never printed.

Example:
  qbo-bridge status`,
	Run: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	creds, err := store.Open(cfg.DBPath)
	exitOnError(err, "failed to open credential database")
	defer creds.Close()

	ctx := context.Background()
	cred, err := creds.Get(ctx, cfg.UserID)
	if errors.Is(err, store.ErrNotFound) {
		cred, err = creds.Latest(ctx)
	}
	if errors.Is(err, store.ErrNotFound) {
		fmt.Println("\n=== QuickBooks Connection ===")
		fmt.Println("Status:     not connected")
		fmt.Println("Run `qbo-bridge serve` and open /oauth/start to connect.")
		fmt.Println()
		return
	}
	exitOnError(err, "failed to load credential")

	expiry := time.Unix(cred.ExpiresAt, 0)
	remaining := time.Until(expiry).Round(time.Second)

	fmt.Println("\n=== QuickBooks Connection ===")
	fmt.Printf("Status:     connected\n")
	fmt.Printf("User:       %s\n", cred.UserID)
	fmt.Printf("Realm:      %s\n", cred.RealmID)
	fmt.Printf("Connected:  %s\n", cred.CreatedAt.Format(time.RFC3339))
	if remaining > 0 {
		fmt.Printf("Token:      valid, expires %s (%s)\n", expiry.Format(time.RFC3339), remaining)
	} else {
		fmt.Printf("Token:      expired %s (refreshed on next use)\n", expiry.Format(time.RFC3339))
	}
	fmt.Println()

	slog.Info("Status displayed successfully")
}
