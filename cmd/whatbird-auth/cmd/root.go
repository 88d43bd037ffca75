package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "whatbird-auth",
	Short: "What Bird wallet authentication service",
	Long: `Wallet based sign-in for What Bird. Users prove ownership of a Solana or
Ethereum wallet by signing a timestamped challenge and receive a session token.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML config file (environment variables use the WHATBIRD_ prefix)")
}
