package transfer

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/kwandrews/drydock/internal/errdefs"
)

// Push streams a local volume (normally a snapshot) to an image file on
// the remote host: local dd read, optional local compress, remote dd
// write. Compression happens on the sending side so the wire carries
// the smaller stream.
func (s *Service) Push(ctx context.Context, remote RemoteHost, sourcePath, remotePath, compression string) error {
	if !s.pathExists(sourcePath) {
		return errdefs.New(errdefs.KindTransfer, "transfer.push",
			"source path does not exist: %q", sourcePath)
	}

	local := [][]string{s.ddRead(sourcePath)}
	if compressed(compression) {
		local = append(local, compressStage(compression))
	}

	cmds, lastOut, err := chainLocal(ctx, local, nil)
	if err != nil {
		return errdefs.Wrap(errdefs.KindTransfer, "transfer.push", err)
	}

	remoteOut, wait, err := remote.Start(s.ddWrite(remotePath), lastOut)
	if err != nil {
		return errdefs.Wrap(errdefs.KindTransfer, "transfer.push", err)
	}

	s.log.Info().Str("source", sourcePath).Str("target", remotePath).
		Msg("backing up disk image to remote host, this will take time")

	if err := startAll(cmds); err != nil {
		_ = wait()
		return errdefs.Wrap(errdefs.KindTransfer, "transfer.push", err)
	}

	// Remote dd chatters on stdout; drain it so the session can end.
	_, _ = io.Copy(io.Discard, remoteOut)

	s.waitUpstream(cmds)
	if err := wait(); err != nil {
		return errdefs.Wrapf(errdefs.KindTransfer, "transfer.push", err,
			"remote write to %q failed", remotePath)
	}
	return nil
}

// Fetch streams a remote backup image into an existing local volume:
// remote dd read, optional local decompress, local dd write.
func (s *Service) Fetch(ctx context.Context, remote RemoteHost, remotePath, targetPath, compression string) error {
	if !s.pathExists(targetPath) {
		return errdefs.New(errdefs.KindTransfer, "transfer.fetch",
			"target path does not exist: %q", targetPath)
	}

	remoteOut, wait, err := remote.Start(s.ddRead(remotePath), nil)
	if err != nil {
		return errdefs.Wrap(errdefs.KindTransfer, "transfer.fetch", err)
	}

	local := [][]string{}
	if compressed(compression) {
		local = append(local, decompressStage(compression))
	}
	local = append(local, s.ddWrite(targetPath))

	cmds, lastOut, err := chainLocal(ctx, local, remoteOut)
	if err != nil {
		_ = wait()
		return errdefs.Wrap(errdefs.KindTransfer, "transfer.fetch", err)
	}

	s.log.Info().Str("source", remotePath).Str("target", targetPath).
		Msg("importing disk image from remote host, this will take time")

	if err := startAll(cmds); err != nil {
		_ = wait()
		return errdefs.Wrap(errdefs.KindTransfer, "transfer.fetch", err)
	}

	// The final local dd writes the device itself; its stdout is empty.
	_, _ = io.Copy(io.Discard, lastOut)

	if err := wait(); err != nil {
		s.log.Warn().Err(err).Msg("remote read stage failed")
	}
	s.waitUpstream(cmds[:len(cmds)-1])
	if err := cmds[len(cmds)-1].Wait(); err != nil {
		return errdefs.Wrapf(errdefs.KindTransfer, "transfer.fetch", err,
			"local write to %q failed", targetPath)
	}
	return nil
}

// chainLocal builds exec commands for stages, wiring stage i's stdout
// to stage i+1's stdin. stdin (may be nil) feeds the first stage; the
// returned reader is the final stage's stdout.
func chainLocal(ctx context.Context, stages [][]string, stdin io.Reader) ([]*exec.Cmd, io.Reader, error) {
	cmds := make([]*exec.Cmd, len(stages))
	next := stdin
	for i, argv := range stages {
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdin = next
		out, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to pipe %q: %w", strings.Join(argv, " "), err)
		}
		cmds[i] = cmd
		next = out
	}
	return cmds, next, nil
}

func startAll(cmds []*exec.Cmd) error {
	for _, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("failed to start %q: %w", cmd.Path, err)
		}
	}
	return nil
}

// waitUpstream reaps non-final stages. Their failures do not decide the
// pipeline verdict but are worth a warning.
func (s *Service) waitUpstream(cmds []*exec.Cmd) {
	for _, cmd := range cmds {
		if err := cmd.Wait(); err != nil {
			s.log.Warn().Str("command", cmd.Path).Err(err).Msg("pipeline stage failed")
		}
	}
}
