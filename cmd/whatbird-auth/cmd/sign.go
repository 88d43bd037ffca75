package cmd

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/lopushok9/whatbird"
)

var (
	walletKey     string
	walletKeyFile string
	signAppName   string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a fresh challenge and print the login request body",
	Long: `Signs a challenge with a Solana key and prints the JSON body for
POST /api/solana-auth. Without --key or --key-file a new key is generated
and its secret is written to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadWalletKey(cmd)
		if err != nil {
			return err
		}

		body := whatbird.NewSignInRequest(key, signAppName, time.Now())

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(body)
	},
}

// loadWalletKey reads the key from the flags or WHATBIRD_WALLET_KEY, generating one if none is set
func loadWalletKey(cmd *cobra.Command) (ed25519.PrivateKey, error) {
	source := walletKey
	if walletKeyFile != "" {
		data, err := os.ReadFile(walletKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		source = string(data)
	}
	if source == "" {
		source = os.Getenv("WHATBIRD_WALLET_KEY")
	}

	if source != "" {
		return whatbird.ParseSolanaKey(source)
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "generated wallet %s\nsecret key: %s\n", whatbird.PublicKey(key), base58.Encode(key))
	return key, nil
}

func addWalletKeyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&walletKey, "key", "", "Solana secret key, base58 or keygen JSON array")
	cmd.Flags().StringVar(&walletKeyFile, "key-file", "", "Path to a solana-keygen keypair file")
}

func init() {
	rootCmd.AddCommand(signCmd)
	addWalletKeyFlags(signCmd)
	signCmd.Flags().StringVar(&signAppName, "app-name", "What Bird", "Application name embedded in the challenge")
}
