package main

import (
	"encoding/hex"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/auravita/privacykit/internal/cryptox"
)

var saltCmd = &cobra.Command{
	Use:   "salt",
	Short: "Generate a fresh 16-byte encryption salt",
	RunE: func(cmd *cobra.Command, args []string) error {
		salt, err := cryptox.GenerateSalt()
		if err != nil {
			return fmt.Errorf("salt generation: %w", err)
		}

		fmt.Println(hex.EncodeToString(salt))
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("✓")+" generated; store it with the user profile before first use")
		return nil
	},
}
