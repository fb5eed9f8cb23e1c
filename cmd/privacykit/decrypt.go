package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auravita/privacykit/internal/cryptox"
	"github.com/auravita/privacykit/internal/envelope"
	"github.com/auravita/privacykit/internal/logging"
)

var (
	decryptKeyHex       string
	decryptUserID       string
	decryptResourceType string
	decryptResourceID   string
	decryptBound        bool
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt [envelope]",
	Short: "Open an encrypted envelope",
	Long: `Opens a JSON envelope and prints the plaintext. Values that are not
envelopes are printed unchanged, matching how the clients read records
written before encryption was rolled out.

With no argument the envelope is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := decodeKey(decryptKeyHex)
		if err != nil {
			return err
		}
		defer cryptox.Wipe(key)

		raw, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		cipher := envelope.New(logging.NewNopLogger())

		var plaintext string
		if decryptBound {
			plaintext, err = cipher.Open(cmd.Context(), raw, key, envelope.AssociatedData{
				UserID:       decryptUserID,
				ResourceType: decryptResourceType,
				ResourceID:   decryptResourceID,
			})
		} else {
			plaintext, err = cipher.DecryptText(cmd.Context(), raw, key)
		}
		if err != nil {
			return fmt.Errorf("decrypt: %w", err)
		}

		fmt.Println(plaintext)
		return nil
	},
}

func init() {
	decryptCmd.Flags().StringVar(&decryptKeyHex, "key", "", "32-byte key as hex (required)")
	decryptCmd.Flags().BoolVar(&decryptBound, "aead", false, "verify the envelope against a resource identity")
	decryptCmd.Flags().StringVar(&decryptUserID, "user", "", "user ID for --aead verification")
	decryptCmd.Flags().StringVar(&decryptResourceType, "resource-type", "", "resource type for --aead verification")
	decryptCmd.Flags().StringVar(&decryptResourceID, "resource-id", "", "resource ID for --aead verification")
	_ = decryptCmd.MarkFlagRequired("key")
}
