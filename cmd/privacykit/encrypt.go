package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/auravita/privacykit/internal/cryptox"
	"github.com/auravita/privacykit/internal/envelope"
	"github.com/auravita/privacykit/internal/logging"
)

var (
	encryptKeyHex       string
	encryptAEAD         bool
	encryptUserID       string
	encryptResourceType string
	encryptResourceID   string
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt [plaintext]",
	Short: "Seal a plaintext into an encrypted envelope",
	Long: `Produces the JSON envelope the mobile clients store. The default
format is AES-256-CBC with an HMAC-SHA256 tag; --aead switches to
AES-256-GCM bound to a user/resource identity.

With no argument the plaintext is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := decodeKey(encryptKeyHex)
		if err != nil {
			return err
		}
		defer cryptox.Wipe(key)

		plaintext, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		cipher := envelope.New(logging.NewNopLogger())

		var sealed string
		if encryptAEAD {
			sealed, err = cipher.Seal(cmd.Context(), plaintext, key, envelope.AssociatedData{
				UserID:       encryptUserID,
				ResourceType: encryptResourceType,
				ResourceID:   encryptResourceID,
			})
		} else {
			sealed, err = cipher.EncryptText(cmd.Context(), plaintext, key)
		}
		if err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}

		fmt.Println(sealed)
		return nil
	},
}

func init() {
	encryptCmd.Flags().StringVar(&encryptKeyHex, "key", "", "32-byte key as hex (required)")
	encryptCmd.Flags().BoolVar(&encryptAEAD, "aead", false, "use AES-256-GCM bound to a resource identity")
	encryptCmd.Flags().StringVar(&encryptUserID, "user", "", "user ID for --aead binding")
	encryptCmd.Flags().StringVar(&encryptResourceType, "resource-type", "", "resource type for --aead binding")
	encryptCmd.Flags().StringVar(&encryptResourceID, "resource-id", "", "resource ID for --aead binding")
	_ = encryptCmd.MarkFlagRequired("key")
}

func decodeKey(keyHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid key hex: %w", err)
	}
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", cryptox.KeySize, len(key))
	}
	return key, nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("!")+" empty input")
	}
	return text, nil
}
