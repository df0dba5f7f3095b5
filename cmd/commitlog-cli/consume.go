package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

func newConsumeCommand() *cobra.Command {
	var asBase64 bool

	cmd := &cobra.Command{
		Use:   "consume <offset>",
		Short: "Read the record at an offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("offset must be a non-negative integer: %q", args[0])
			}
			return runConsume(cmd, offset, asBase64)
		},
	}

	cmd.Flags().BoolVar(&asBase64, "base64", false, "Print the value base64-encoded")

	return cmd
}

func runConsume(cmd *cobra.Command, offset uint64, asBase64 bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rc, release, err := openRecordClient(ctx)
	if err != nil {
		return err
	}
	defer release()

	record, err := rc.Consume(ctx, offset)
	if err != nil {
		if errors.Is(err, commitlog.ErrOffsetNotFound) {
			return fmt.Errorf("no record at offset %d", offset)
		}
		return err
	}

	value := string(record.Value)
	if asBase64 {
		value = base64.StdEncoding.EncodeToString(record.Value)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Offset: %d\n", record.Offset)
	fmt.Fprintf(out, "Value: %s\n", value)
	return nil
}
