package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newProduceCommand() *cobra.Command {
	var (
		isBase64 bool
		stdin    bool
	)

	cmd := &cobra.Command{
		Use:   "produce [value]",
		Short: "Append a record to the log",
		Long: `Append a record to the log and print its offset. The value is taken
from the argument, or from standard input with --stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value []byte
			switch {
			case stdin:
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				value = b
			case len(args) == 1:
				value = []byte(args[0])
			default:
				return fmt.Errorf("a value argument or --stdin is required")
			}

			if isBase64 {
				decoded, err := base64.StdEncoding.DecodeString(string(value))
				if err != nil {
					return fmt.Errorf("invalid base64 value: %w", err)
				}
				value = decoded
			}
			return runProduce(cmd, value)
		},
	}

	cmd.Flags().BoolVar(&isBase64, "base64", false, "Treat the value as base64-encoded bytes")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "Read the value from standard input")

	return cmd
}

func runProduce(cmd *cobra.Command, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rc, release, err := openRecordClient(ctx)
	if err != nil {
		return err
	}
	defer release()

	offset, err := rc.Produce(ctx, value)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Record appended at offset %d\n", offset)
	return nil
}
