package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kwandrews/drydock/internal/config"
	"github.com/kwandrews/drydock/internal/engine"
	"github.com/kwandrews/drydock/internal/meta"
	"github.com/kwandrews/drydock/internal/runlog"
	"github.com/kwandrews/drydock/internal/transport"
)

var (
	importOverwrite     bool
	importRemote        string
	importIdentityFile  string
	importVolumeGroup   string
	importLogicalVolume string
	importBridge        string
	importAutostart     bool
	importStart         bool
)

func init() {
	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "remove conflicting VMs and volumes without prompting")
	importCmd.Flags().StringVar(&importRemote, "remote", "", "import from this host over SSH (host or user@host)")
	importCmd.Flags().StringVarP(&importIdentityFile, "identity-file", "I", "", "SSH identity file for --remote")
	importCmd.Flags().StringVar(&importVolumeGroup, "volume-group", "", "restore the disk into this volume group")
	importCmd.Flags().StringVar(&importLogicalVolume, "logical-volume", "", "restore the disk into this logical volume")
	importCmd.Flags().StringVar(&importBridge, "bridge", "", "attach the VM to this bridge")
	importCmd.Flags().BoolVar(&importAutostart, "autostart", false, "mark the VM to start with the host")
	importCmd.Flags().BoolVar(&importStart, "start", false, "boot the VM after registration")
}

var importCmd = &cobra.Command{
	Use:   "import <source-dir> [name]",
	Short: "Register a VM from a backup directory",
	Long: `Import a VM from a backup directory, local or remote.

The backup's metadata, definition, and disk image are restored under
the original identity unless a new name or placement overrides are
given. The target host is verified for volume group capacity and
bridge presence before anything is created.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		return runOperation("import", func(ctx context.Context, g config.Global, run *runlog.Run) error {
			tk, closer, err := newToolkit(ctx, g, run, importOverwrite)
			if err != nil {
				return err
			}
			defer closer()

			ov := meta.Overrides{}
			if len(args) > 1 {
				ov.Name = &args[1]
			}
			if cmd.Flags().Changed("volume-group") {
				ov.VolumeGroup = &importVolumeGroup
			}
			if cmd.Flags().Changed("logical-volume") {
				ov.LogicalVolume = &importLogicalVolume
			}
			if cmd.Flags().Changed("bridge") {
				ov.Bridge = &importBridge
			}

			req := engine.ImportRequest{
				Overrides: ov,
				Start:     importStart,
				Autostart: importAutostart,
				Command:   strings.Join(os.Args, " "),
			}
			if importRemote != "" {
				ep, cfg, err := dialRemote(ctx, importRemote, identityFile(importIdentityFile, g))
				if err != nil {
					return err
				}
				defer func() { _ = ep.Close() }()
				req.Store = openStore(ep, cfg, dir)
				req.Remote = ep
			} else {
				req.Store = openStore(nil, transport.Config{}, dir)
			}

			target, err := tk.engine.Import(ctx, req)
			if err != nil {
				return err
			}

			successf(g, "Success: completed import of VM %q from %q.", target.Name, dir)
			return nil
		})
	},
}
