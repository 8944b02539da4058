// Package transfer moves VM disk images between logical volumes and
// backup locations. Every move is one streaming pipeline of dd and
// compressor stages, locally or across SSH, so an image never
// materializes as an intermediate file on either end.
package transfer

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kwandrews/drydock/internal/errdefs"
)

// DefaultBlockSize is the dd block size used when none is configured.
const DefaultBlockSize = "512K"

// pipelineRunner is the subset of runner.Runner the service needs for
// pure-local pipelines.
type pipelineRunner interface {
	RunPipeline(ctx context.Context, stages [][]string) error
}

// RemoteHost is the streaming surface of transport.Endpoint.
type RemoteHost interface {
	Start(argv []string, stdin io.Reader) (stdout io.Reader, wait func() error, err error)
}

// Service builds and runs image copy pipelines.
type Service struct {
	runner    pipelineRunner
	blockSize string
	log       zerolog.Logger

	// pathExists is swappable so tests run without device nodes.
	pathExists func(string) bool
}

// NewService returns a Service. blockSize falls back to
// DefaultBlockSize when empty.
func NewService(r pipelineRunner, blockSize string) *Service {
	if blockSize == "" {
		blockSize = DefaultBlockSize
	}
	return &Service{
		runner:    r,
		blockSize: blockSize,
		log:       log.With().Str("component", "transfer").Logger(),
		pathExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

func (s *Service) ddRead(path string) []string {
	return []string{"dd", "bs=" + s.blockSize, "if=" + path}
}

func (s *Service) ddWrite(path string) []string {
	return []string{"dd", "bs=" + s.blockSize, "of=" + path}
}

func compressStage(compression string) []string {
	return []string{compression, "-c"}
}

func decompressStage(compression string) []string {
	return []string{compression, "-d"}
}

func compressed(compression string) bool {
	return compression != "" && compression != "none"
}

// Export copies a local volume (normally a snapshot) into a local
// backup image file, compressing in-stream when asked.
func (s *Service) Export(ctx context.Context, sourcePath, targetPath, compression string) error {
	if !s.pathExists(sourcePath) {
		return errdefs.New(errdefs.KindTransfer, "transfer.export",
			"source path does not exist: %q", sourcePath)
	}

	stages := [][]string{s.ddRead(sourcePath)}
	if compressed(compression) {
		stages = append(stages, compressStage(compression))
	}
	stages = append(stages, s.ddWrite(targetPath))

	s.log.Info().Str("source", sourcePath).Str("target", targetPath).
		Msg("backing up disk image, this will take time")
	if err := s.runner.RunPipeline(ctx, stages); err != nil {
		return errdefs.Wrapf(errdefs.KindTransfer, "transfer.export", err,
			"could not export %q to %q", sourcePath, targetPath)
	}
	return nil
}

// Import copies a local backup image (or live snapshot) into an
// existing logical volume, decompressing in-stream when the image was
// compressed.
func (s *Service) Import(ctx context.Context, sourcePath, targetPath, compression string) error {
	if !s.pathExists(sourcePath) {
		return errdefs.New(errdefs.KindTransfer, "transfer.import",
			"source path does not exist: %q", sourcePath)
	}
	if !s.pathExists(targetPath) {
		return errdefs.New(errdefs.KindTransfer, "transfer.import",
			"target path does not exist: %q", targetPath)
	}

	stages := [][]string{s.ddRead(sourcePath)}
	if compressed(compression) {
		stages = append(stages, decompressStage(compression))
	}
	stages = append(stages, s.ddWrite(targetPath))

	s.log.Info().Str("source", sourcePath).Str("target", targetPath).
		Msg("importing disk image, this will take time")
	if err := s.runner.RunPipeline(ctx, stages); err != nil {
		return errdefs.Wrapf(errdefs.KindTransfer, "transfer.import", err,
			"could not import %q into %q", sourcePath, targetPath)
	}
	return nil
}
