package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kwandrews/drydock/internal/config"
	"github.com/kwandrews/drydock/internal/output"
	"github.com/kwandrews/drydock/internal/runlog"
)

var (
	listFormat    string
	listNoHeaders bool
)

func init() {
	listCmd.Flags().StringVarP(&listFormat, "output", "o", "table", "output format (table, yaml, json)")
	listCmd.Flags().BoolVar(&listNoHeaders, "no-headers", false, "omit the header row in table output")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the VMs defined on this host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation("list", func(ctx context.Context, g config.Global, run *runlog.Run) error {
			if err := output.ValidateFormat(listFormat); err != nil {
				return err
			}
			formatter, err := output.NewFormatter(output.Options{
				Format:    output.Format(listFormat),
				NoHeaders: listNoHeaders,
			})
			if err != nil {
				return err
			}

			tk, closer, err := newToolkit(ctx, g, run, false)
			if err != nil {
				return err
			}
			defer closer()

			if err := tk.inv.Refresh(ctx); err != nil {
				return err
			}
			out, err := formatter.FormatVMList(tk.inv.VMs())
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		})
	},
}
