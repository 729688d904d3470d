// file: cmd/jsonrpcx-serve/version_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("jsonrpcx-serve %s (commit %s, built %s)\n", version, commitHash, buildDate)
		return nil
	},
}
