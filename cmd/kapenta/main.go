// cmd/kapenta/main.go
//
// kapenta – configuration-driven report API.
//
// Commands
// --------
//
//	kapenta [serve] -c kapenta.yaml   load, map, and serve until SIGINT/SIGTERM
//	kapenta check   -c kapenta.yaml   load and map only; print resolved routes
//	kapenta renders -c kapenta.yaml   show recent rows of the render audit log
//
// `serve` is the default when no sub-command is given.  Every command exits
// non-zero on a fatal boot error.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "kapenta.yaml"

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "kapenta",
		Short: "Serve report templates as an HTTP API described by one YAML file",
		Long: `kapenta reads a YAML document declaring reports, turns every valid
declaration into an endpoint under one API root, and serves them with an
optional Basic Auth filter.

Quick start:
  kapenta -c kapenta.yaml           serve the reports
  kapenta check -c kapenta.yaml     validate and list the routes`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath, "path to config yaml")

	root.AddCommand(newServeCmd(&cfgPath), newCheckCmd(&cfgPath), newRendersCmd(&cfgPath))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
