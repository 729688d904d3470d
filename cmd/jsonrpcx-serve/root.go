// file: cmd/jsonrpcx-serve/root.go
package main

import (
	"github.com/spf13/cobra"
)

// Version information, populated at build time via -ldflags.
var (
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "jsonrpcx-serve",
	Short: "Run and inspect jsonrpcx endpoints",
	Long: `jsonrpcx-serve hosts a bidirectional JSON-RPC 2.0 endpoint over
stdio or TCP, and can attach a live monitor to an already-running one.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a jsonrpcx config YAML file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(initCmd)
}
