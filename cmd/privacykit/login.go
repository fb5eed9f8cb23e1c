package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/auravita/privacykit/internal/audit"
	"github.com/auravita/privacykit/internal/cryptox"
	"github.com/auravita/privacykit/internal/keys"
	"github.com/auravita/privacykit/internal/keystore"
	"github.com/auravita/privacykit/internal/logging"
	"github.com/auravita/privacykit/internal/remote"
)

var (
	loginServer string
	loginToken  string
	loginUserID string
	loginDBPath string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Run the full key-initialization flow against a privacyd instance",
	Long: `Exercises the same path the mobile clients run at login: resolve the
salt through the backend profile record, derive the key, and cache it in a
local secure store. Repeating the command on another machine with the same
password must yield the same key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sl := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger := logging.NewSlogLogger(sl)

		db, err := sql.Open("sqlite", loginDBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()

		if err := keystore.Migrate(ctx, db); err != nil {
			return err
		}
		store := keystore.NewSQLiteStore(db)

		client := remote.NewClient(loginServer, remote.StaticToken(loginToken))

		recorder := audit.NewLogger(client, audit.UserResolverFunc(func(ctx context.Context) string {
			return loginUserID
		}), logger)
		defer recorder.Close()

		svc := keys.NewService(store, client, recorder, logger)

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		defer cryptox.Wipe(password)

		if !svc.Initialize(ctx, loginUserID, password) {
			return fmt.Errorf("key initialization failed")
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓")+" encryption key ready for "+loginUserID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "http://localhost:8080", "privacyd base URL")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "bearer token (required)")
	loginCmd.Flags().StringVar(&loginUserID, "user", "", "user ID (required)")
	loginCmd.Flags().StringVar(&loginDBPath, "db", "privacykit.db", "local secure-store database path")
	_ = loginCmd.MarkFlagRequired("token")
	_ = loginCmd.MarkFlagRequired("user")
}
