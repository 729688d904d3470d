// file: cmd/jsonrpcx-serve/init_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkoosis/jsonrpcx/rpcconfig"
)

var initCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a starter config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := rpcconfig.WriteDefault(args[0]); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		fmt.Printf("wrote %s\n", args[0])
		return nil
	},
}
