// privacykit is the developer CLI for the encryption core: it derives keys,
// seals and opens envelopes, and exercises a privacyd backend end to end.
// It is a debugging and operations tool, not part of the mobile runtime.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "privacykit",
	Short: "Inspect and exercise the client-side encryption core",
	Long: `privacykit works with the same primitives the mobile clients use:
PBKDF2 key derivation, AES envelopes, and the privacyd salt and audit API.

Run 'privacykit help <command>' for details on a specific command.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(saltCmd)
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(loginCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
