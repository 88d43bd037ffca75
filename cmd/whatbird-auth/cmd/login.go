package cmd

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lopushok9/whatbird"
)

var (
	loginURL     string
	loginAppName string
	loginTimeout time.Duration
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in against a running server and print the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadWalletKey(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client := whatbird.NewClient(loginURL,
			whatbird.WithAppName(loginAppName),
			whatbird.WithHTTPClient(&http.Client{Timeout: loginTimeout}))

		session, err := client.Login(ctx, key)
		if err != nil {
			return err
		}
		me, err := client.Me(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"session": session,
			"me":      me,
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	addWalletKeyFlags(loginCmd)
	loginCmd.Flags().StringVar(&loginURL, "url", "http://localhost:9000", "Base URL of the auth server")
	loginCmd.Flags().StringVar(&loginAppName, "app-name", "What Bird", "Application name embedded in the challenge")
	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", 10*time.Second, "Request timeout")
}
