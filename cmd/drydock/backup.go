package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kwandrews/drydock/internal/config"
	"github.com/kwandrews/drydock/internal/engine"
	"github.com/kwandrews/drydock/internal/runlog"
	"github.com/kwandrews/drydock/internal/transport"
)

var (
	backupRemote       string
	backupCompression  string
	backupIdentityFile string
)

func init() {
	backupCmd.Flags().StringVar(&backupRemote, "remote", "", "back up to this host over SSH (host or user@host)")
	backupCmd.Flags().StringVar(&backupCompression, "compression", "none", "compress the image in-stream (none, gzip, bzip2)")
	backupCmd.Flags().StringVarP(&backupIdentityFile, "identity-file", "I", "", "SSH identity file for --remote")
}

var backupCmd = &cobra.Command{
	Use:   "backup <name> <target-dir>",
	Short: "Back up a VM's metadata, definition, and disk image",
	Long: `Back up a VM to a directory, local or remote.

The VM's disk is read from a transient LV snapshot taken while the
guest is suspended, so the image is crash consistent even for a
running VM. The snapshot is always removed afterwards, success or
failure.

The backup directory ends up holding meta.txt, <name>.xml, and
<name>.img (with a compression extension when enabled).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, dir := args[0], args[1]
		return runOperation("backup", func(ctx context.Context, g config.Global, run *runlog.Run) error {
			compression := backupCompression
			if !cmd.Flags().Changed("compression") && g.Compression != "" {
				compression = g.Compression
			}
			if err := config.ValidateCompression(compression); err != nil {
				return err
			}

			tk, closer, err := newToolkit(ctx, g, run, false)
			if err != nil {
				return err
			}
			defer closer()

			req := engine.BackupRequest{
				Name:        name,
				Compression: compression,
				Command:     strings.Join(os.Args, " "),
			}
			target := dir
			if backupRemote != "" {
				ep, cfg, err := dialRemote(ctx, backupRemote, identityFile(backupIdentityFile, g))
				if err != nil {
					return err
				}
				defer func() { _ = ep.Close() }()
				req.Store = openStore(ep, cfg, dir)
				req.Remote = ep
				target = cfg.Address() + ":" + dir
			} else {
				req.Store = openStore(nil, transport.Config{}, dir)
			}

			if err := tk.engine.Backup(ctx, req); err != nil {
				return err
			}

			successf(g, "Success: completed backup of VM %q to %q.", name, target)
			return nil
		})
	},
}

// identityFile picks the per-command flag over the configured default.
func identityFile(flag string, g config.Global) string {
	if flag != "" {
		return flag
	}
	return g.IdentityFile
}
