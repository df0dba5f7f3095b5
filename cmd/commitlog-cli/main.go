package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/commitlog-go/internal/grpcapi"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/httpclient"
)

var (
	// Global flags
	serverURL string
	grpcAddr  string
	clientID  string
	token     string
	timeout   time.Duration

	// Global client instance
	client *httpclient.Client
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "commitlog-cli",
		Short: "commitlog command line interface",
		Long: `commitlog-cli talks to a commitlog server. It appends records, reads
them back by offset, and reports server health.`,
		PersistentPreRunE: initializeClient,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "commitlog HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&grpcAddr, "grpc", "", "Use the gRPC API at this address for produce and consume")
	rootCmd.PersistentFlags().StringVar(&clientID, "client-id", "", "Client ID; logs in before record commands when no token is given")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "JWT token (if already authenticated)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newProduceCommand())
	rootCmd.AddCommand(newConsumeCommand())
	rootCmd.AddCommand(newHealthCommand())
	rootCmd.AddCommand(newStatsCommand())

	return rootCmd
}

// initializeClient sets up the HTTP client with global configuration
func initializeClient(cmd *cobra.Command, args []string) error {
	// Skip client initialization for help commands
	if cmd.Name() == "help" || cmd.Parent() == nil {
		return nil
	}

	var err error
	client, err = httpclient.NewClient(httpclient.Config{
		ServerURL: serverURL,
		ClientID:  clientID,
		Timeout:   timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if token != "" {
		client.SetToken(token)
	}
	return nil
}

// ensureAuthenticated logs in when a client ID was given without a token
func ensureAuthenticated(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("client not initialized")
	}
	if client.IsAuthenticated() || clientID == "" {
		return nil
	}
	return client.Authenticate(ctx)
}

// recordClient is implemented by both the HTTP and gRPC clients
type recordClient interface {
	Produce(ctx context.Context, value []byte) (uint64, error)
	Consume(ctx context.Context, offset uint64) (commitlog.Record, error)
}

// openRecordClient returns the gRPC client when --grpc is set, else the HTTP
// client. The returned func releases it.
func openRecordClient(ctx context.Context) (recordClient, func(), error) {
	if grpcAddr != "" {
		gc, err := grpcapi.Dial(grpcAddr)
		if err != nil {
			return nil, nil, err
		}
		return gc, func() { _ = gc.Close() }, nil
	}

	if err := ensureAuthenticated(ctx); err != nil {
		return nil, nil, err
	}
	return client, func() {}, nil
}
