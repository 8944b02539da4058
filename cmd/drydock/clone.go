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
	cloneOverwrite         bool
	cloneLive              bool
	cloneRemote            string
	cloneIdentityFile      string
	cloneVolumeGroup       string
	cloneLogicalVolume     string
	cloneLogicalVolumeSize string
	cloneBridge            string
	cloneMAC               string
	cloneAutostart         bool
	cloneStart             bool
)

func init() {
	cloneCmd.Flags().BoolVar(&cloneOverwrite, "overwrite", false, "remove conflicting VMs and volumes without prompting")
	cloneCmd.Flags().BoolVar(&cloneLive, "live", false, "clone from a defined VM instead of a backup directory")
	cloneCmd.Flags().StringVar(&cloneRemote, "remote", "", "clone from this host over SSH (host or user@host)")
	cloneCmd.Flags().StringVarP(&cloneIdentityFile, "identity-file", "I", "", "SSH identity file for --remote")
	cloneCmd.Flags().StringVar(&cloneVolumeGroup, "volume-group", "", "place the clone's disk in this volume group")
	cloneCmd.Flags().StringVar(&cloneLogicalVolume, "logical-volume", "", "place the clone's disk in this logical volume")
	cloneCmd.Flags().StringVar(&cloneLogicalVolumeSize, "logical-volume-size", "", "size of the clone's logical volume")
	cloneCmd.Flags().StringVar(&cloneBridge, "bridge", "", "attach the clone to this bridge")
	cloneCmd.Flags().StringVar(&cloneMAC, "mac", "", "MAC address for the clone (default: generated)")
	cloneCmd.Flags().BoolVar(&cloneAutostart, "autostart", false, "mark the clone to start with the host")
	cloneCmd.Flags().BoolVar(&cloneStart, "start", false, "boot the clone after registration")
}

var cloneCmd = &cobra.Command{
	Use:   "clone <source> <name>",
	Short: "Create a new VM from a backup directory or a live VM",
	Long: `Clone a VM under a new name.

Source is a backup directory, or with --live the name of a VM defined
on this host. A live source is suspended only for the moment it takes
to snapshot its disk. The clone always gets its own MAC address and a
hypervisor-assigned UUID; everything else follows the source unless
overridden.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, name := args[0], args[1]
		return runOperation("clone", func(ctx context.Context, g config.Global, run *runlog.Run) error {
			tk, closer, err := newToolkit(ctx, g, run, cloneOverwrite)
			if err != nil {
				return err
			}
			defer closer()

			ov := meta.Overrides{Name: &name}
			if cmd.Flags().Changed("volume-group") {
				ov.VolumeGroup = &cloneVolumeGroup
			}
			if cmd.Flags().Changed("logical-volume") {
				ov.LogicalVolume = &cloneLogicalVolume
			}
			if cmd.Flags().Changed("logical-volume-size") {
				ov.LogicalVolumeSize = &cloneLogicalVolumeSize
			}
			if cmd.Flags().Changed("bridge") {
				ov.Bridge = &cloneBridge
			}
			if cmd.Flags().Changed("mac") {
				ov.MAC = &cloneMAC
			}

			req := engine.CloneRequest{
				Live:      cloneLive,
				Overrides: ov,
				Start:     cloneStart,
				Autostart: cloneAutostart,
				Command:   strings.Join(os.Args, " "),
			}
			if cloneLive {
				req.Source = source
			} else if cloneRemote != "" {
				ep, cfg, err := dialRemote(ctx, cloneRemote, identityFile(cloneIdentityFile, g))
				if err != nil {
					return err
				}
				defer func() { _ = ep.Close() }()
				req.Store = openStore(ep, cfg, source)
				req.Remote = ep
			} else {
				req.Store = openStore(nil, transport.Config{}, source)
			}

			target, err := tk.engine.Clone(ctx, req)
			if err != nil {
				return err
			}

			successf(g, "Success: completed clone of %q as VM %q.", source, target.Name)
			return nil
		})
	},
}
