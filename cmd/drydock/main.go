// Command drydock orchestrates backup, import, and clone of KVM/libvirt
// VMs whose disks are raw LVM logical volumes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kwandrews/drydock/internal/config"
	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/lock"
	"github.com/kwandrews/drydock/internal/runlog"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	flagConfig      string
	flagOutputLevel int
	flagHeadless    bool
	flagBlockSize   string
	flagDev         bool
)

// stdout is swappable for tests.
var stdout io.Writer = os.Stdout

// successf prints the final operator-facing line of a command. Silent
// runs (output level 0, so --headless too) print nothing.
func successf(g config.Global, format string, args ...any) {
	if g.OutputLevel == 0 {
		return
	}
	fmt.Fprintf(stdout, format+"\n", args...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errdefs.ErrCanceled) {
			fmt.Fprintln(os.Stderr, "Canceled.")
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "drydock",
	Short: "Drydock - VM backup, import, and clone orchestrator",
	Long: `Drydock orchestrates lifecycle operations for KVM/libvirt virtual
machines backed by raw LVM logical volumes.

It takes crash-consistent backups via transient LV snapshots, imports
VMs from backup directories (local or remote over SSH), and clones VMs
live or from backups, negotiating identity conflicts with the existing
fleet before any destructive step.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", config.DefaultPath, "path to the defaults file")
	pf.IntVar(&flagOutputLevel, "output-level", -1, "verbosity 0..4 (0 silent, 2 default, 4 trace)")
	pf.BoolVar(&flagHeadless, "headless", false, "non-interactive run, forces output level 0")
	pf.StringVar(&flagBlockSize, "block-size", "", "dd block size for image copies (default 512K)")
	pf.BoolVar(&flagDev, "dev", false, "development mode, print full error detail")

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(listCmd)
}

// resolveGlobal merges the defaults file with the global flags.
func resolveGlobal() (config.Global, error) {
	defaults, err := config.Load(flagConfig)
	if err != nil {
		return config.Global{}, err
	}

	g := config.Global{
		OutputLevel: flagOutputLevel,
		Headless:    flagHeadless,
		BlockSize:   flagBlockSize,
	}
	g.Resolve(defaults)
	if err := g.Validate(); err != nil {
		return config.Global{}, err
	}
	return g, nil
}

// outputLevels maps --output-level to zerolog levels.
var outputLevels = map[int]zerolog.Level{
	0: zerolog.Disabled,
	1: zerolog.ErrorLevel,
	2: zerolog.InfoLevel,
	3: zerolog.DebugLevel,
	4: zerolog.TraceLevel,
}

func setupLogging(g config.Global) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	zerolog.SetGlobalLevel(outputLevels[g.OutputLevel])
}

// runOperation is the shared process bracket: single-instance lock,
// execution log, error dump on failure. fn does the actual work.
func runOperation(name string, fn func(ctx context.Context, g config.Global, run *runlog.Run) error) error {
	g, err := resolveGlobal()
	if err != nil {
		return err
	}
	setupLogging(g)

	guard, err := lock.Acquire(g.LockPath)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := guard.Release(); rerr != nil {
			log.Error().Err(rerr).Msg("could not release lock file")
		}
	}()

	run := runlog.NewRun(strings.Join(os.Args, " "))
	err = fn(context.Background(), g, run)
	run.Finish(err)

	if aerr := run.AppendTo(g.LogPath); aerr != nil {
		log.Error().Err(aerr).Str("path", g.LogPath).Msg("could not append to execution log")
	}
	if err != nil && !errors.Is(err, errdefs.ErrCanceled) {
		if path, derr := run.DumpError(g.ErrorDir); derr != nil {
			log.Error().Err(derr).Msg("could not write error dump")
		} else {
			fmt.Fprintf(os.Stderr, "Full error detail written to %s\n", path)
		}
		if flagDev {
			fmt.Fprintf(os.Stderr, "[%s] %+v\n", errdefs.KindOf(err), err)
		}
	}

	log.Debug().Str("operation", name).Err(err).Msg("operation finished")
	return err
}
