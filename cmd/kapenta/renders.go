// cmd/kapenta/renders.go
//
// `kapenta renders` prints the newest rows of the render audit log.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yanizio/kapenta/internal/audit"
	"github.com/yanizio/kapenta/internal/config"
	"github.com/yanizio/kapenta/internal/database"
)

func newRendersCmd(cfgPath *string) *cobra.Command {
	var (
		reportName string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "renders",
		Short: "List recent report renders from the audit database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := resolveSecrets(cmd.Context(), cfg); err != nil {
				return err
			}
			db, err := database.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := audit.NewStore(db).Recent(cmd.Context(), reportName, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tREPORT\tMETHOD\tEXT\tSTATUS\tUSER\tMS")
			for _, e := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%d\n",
					e.RenderedAt.Format("2006-01-02 15:04:05"), e.Report, e.Method,
					e.Extension, e.Status, e.Username, e.DurationMS)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&reportName, "report", "r", "", "only this report name")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of rows")
	return cmd
}
