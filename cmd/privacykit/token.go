package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/auravita/privacykit/internal/server/auth"
)

var (
	tokenUserID string
	tokenSecret string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token for a privacyd instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := auth.GenerateToken(tokenUserID, []byte(tokenSecret), tokenTTL)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "user ID claim (required)")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "secretKey", "shared HS256 secret")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token validity")
	_ = tokenCmd.MarkFlagRequired("user")
}
