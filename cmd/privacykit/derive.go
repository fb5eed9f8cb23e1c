package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/auravita/privacykit/internal/cryptox"
)

var deriveSaltHex string

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive an encryption key from a password and salt",
	Long: `Prompts for a password and derives the 32-byte AES key with
PBKDF2-HMAC-SHA256 (100000 iterations). The same password and salt always
produce the same key, which is what keeps multiple devices in sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		salt, err := hex.DecodeString(deriveSaltHex)
		if err != nil {
			return fmt.Errorf("invalid salt hex: %w", err)
		}
		if len(salt) != cryptox.SaltSize {
			return fmt.Errorf("salt must be %d bytes, got %d", cryptox.SaltSize, len(salt))
		}

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		if len(password) == 0 {
			return fmt.Errorf("password must not be empty")
		}
		defer cryptox.Wipe(password)

		key := cryptox.DeriveKey(password, salt)
		defer cryptox.Wipe(key)

		fmt.Println(hex.EncodeToString(key))
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("✓")+" key derived")
		return nil
	},
}

func init() {
	deriveCmd.Flags().StringVar(&deriveSaltHex, "salt", "", "salt as hex (required)")
	_ = deriveCmd.MarkFlagRequired("salt")
}

func readPassword(cmd *cobra.Command) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Piped input, e.g. in scripts and tests.
		var password string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &password); err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		return []byte(password), nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return password, nil
}
