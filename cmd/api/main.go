// Casino Escolar payments service.
//
// This is the main entry point for the payment processing service. The serve
// command wires up all dependencies and starts the HTTP server; the other
// commands are support tools that share its configuration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "api",
		Short:         "Casino Escolar payment sessions and reconciliation",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(normalizeCmd())
	root.AddCommand(signCmd())

	return root
}
