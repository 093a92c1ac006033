// cmd/kapenta/check.go
//
// `kapenta check` loads and maps the configuration exactly as `serve`
// would, then prints the resolved routes without binding a socket.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanizio/kapenta/internal/config"
	"github.com/yanizio/kapenta/internal/report"
)

func newCheckCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print the resolved routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			reg, err := report.BuildRegistry(cfg.ApiRoot, cfg.Reports, cfg.BaseDir)
			if err != nil {
				return err
			}
			printRoutes(cmd.OutOrStdout(), cfg, reg)
			return nil
		},
	}
}

func printRoutes(w io.Writer, cfg *config.Config, reg *report.Registry) {
	fmt.Fprintf(w, "listen   %s\n", cfg.Addr())
	fmt.Fprintf(w, "discover GET %s\n", reg.DiscoveryRoute())
	for _, res := range reg.Resources() {
		exts := strings.Join(res.Extensions, ",")
		if exts == "" {
			exts = report.DefaultExtension
		}
		fmt.Fprintf(w, "report   %-9s %s  [%s]  %s\n",
			strings.Join(res.Methods, ","), reg.Route(res), exts, res.Name)
	}
	fmt.Fprintf(w, "%d of %d reports registered\n", reg.Len(), len(cfg.Reports))
}
