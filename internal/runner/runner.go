// Package runner executes external commands on the host, either one at a
// time or as a left-to-right pipeline where each stage's standard output
// feeds the next stage's standard input. Every non-boolean execution is
// recorded in the run's command history for the audit trail.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kwandrews/drydock/internal/errdefs"
)

// Recorder receives command outcomes for the audit history.
// Satisfied by *runlog.Run.
type Recorder interface {
	Record(level, message string)
}

// nopRecorder discards outcomes. Used when no run is being tracked.
type nopRecorder struct{}

func (nopRecorder) Record(string, string) {}

// Runner executes host commands.
type Runner struct {
	rec Recorder
	log zerolog.Logger
}

// New creates a Runner recording into rec. A nil rec disables history.
func New(rec Recorder) *Runner {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Runner{
		rec: rec,
		log: log.With().Str("component", "runner").Logger(),
	}
}

// Run executes a single command and returns its captured standard output.
// A non-zero exit is an error carrying both output streams; either way the
// outcome lands in the command history.
func (r *Runner) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errdefs.New(errdefs.KindValidation, "runner.run", "empty command")
	}

	cmdline := strings.Join(argv, " ")
	r.log.Debug().Str("command", cmdline).Msg("executing command")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.rec.Record("error", fmt.Sprintf("Command: %s | Stdout: %s | Stderr: %s", cmdline, stdout.String(), stderr.String()))
		return "", fmt.Errorf("command %q failed: %w (stderr: %s)", cmdline, err, strings.TrimSpace(stderr.String()))
	}

	r.rec.Record("success", fmt.Sprintf("Command: %s | Stdout: %s", cmdline, stdout.String()))
	return stdout.String(), nil
}

// RunOK executes a single command and reports only whether it exited zero.
// Boolean probes are not recorded in the command history.
func (r *Runner) RunOK(ctx context.Context, argv []string) bool {
	if len(argv) == 0 {
		return false
	}

	cmdline := strings.Join(argv, " ")
	r.log.Debug().Str("command", cmdline).Msg("executing boolean probe")

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	return cmd.Run() == nil
}

// RunPipeline executes stages as one OS-level pipeline: stage i's stdout is
// stage i+1's stdin. All stages are started before any is waited on, so no
// intermediate output is ever materialized. Success is the success of the
// final stage, matching shell pipeline semantics.
func (r *Runner) RunPipeline(ctx context.Context, stages [][]string) error {
	if len(stages) == 0 {
		return errdefs.New(errdefs.KindValidation, "runner.pipeline", "empty pipeline")
	}

	cmdline := pipelineString(stages)
	r.log.Debug().Str("command", cmdline).Msg("executing pipeline")

	cmds := make([]*exec.Cmd, len(stages))
	for i, argv := range stages {
		if len(argv) == 0 {
			return errdefs.New(errdefs.KindValidation, "runner.pipeline", "empty pipeline stage %d", i)
		}
		cmds[i] = exec.CommandContext(ctx, argv[0], argv[1:]...)
		if i > 0 {
			stdout, err := cmds[i-1].StdoutPipe()
			if err != nil {
				return errdefs.Wrap(errdefs.KindTransfer, "runner.pipeline", err)
			}
			cmds[i].Stdin = stdout
		}
	}

	var finalStderr bytes.Buffer
	last := cmds[len(cmds)-1]
	last.Stderr = &finalStderr

	for i, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			r.rec.Record("error", fmt.Sprintf("Command: %s | %v", cmdline, err))
			return errdefs.Wrapf(errdefs.KindTransfer, "runner.pipeline", err, "failed to start stage %d", i)
		}
	}

	// Reap upstream stages first so the final stage sees EOF, then judge
	// the pipeline by the final stage alone.
	for _, cmd := range cmds[:len(cmds)-1] {
		_ = cmd.Wait()
	}
	if err := last.Wait(); err != nil {
		r.rec.Record("error", fmt.Sprintf("Command: %s | Stderr: %s", cmdline, finalStderr.String()))
		return errdefs.Wrapf(errdefs.KindTransfer, "runner.pipeline", err, "pipeline %q failed", cmdline)
	}

	r.rec.Record("success", fmt.Sprintf("Command: %s", cmdline))
	return nil
}

func pipelineString(stages [][]string) string {
	parts := make([]string, len(stages))
	for i, argv := range stages {
		parts[i] = strings.Join(argv, " ")
	}
	return strings.Join(parts, " | ")
}
