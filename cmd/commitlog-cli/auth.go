package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with the commitlog server",
		Long: `Authenticate with the commitlog server using your client ID.
This prints a JWT token that can be passed to later commands with --token.`,
		RunE: runAuth,
	}
}

func runAuth(cmd *cobra.Command, args []string) error {
	if clientID == "" {
		return fmt.Errorf("--client-id is required for auth")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Authenticating with server %s as client %s...\n", serverURL, clientID)

	if err := client.Authenticate(ctx); err != nil {
		return err
	}

	token := client.GetToken()
	fmt.Fprintf(out, "✅ Authentication successful!\n")
	fmt.Fprintf(out, "Token: %s\n", token)
	fmt.Fprintf(out, "\nYou can now save this token for future use:\n")
	fmt.Fprintf(out, "  export COMMITLOG_TOKEN=\"%s\"\n", token)
	fmt.Fprintf(out, "  commitlog-cli --token \"$COMMITLOG_TOKEN\" produce 'hello'\n")

	return nil
}
