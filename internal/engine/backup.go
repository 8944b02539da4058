package engine

import (
	"context"

	"github.com/kwandrews/drydock/internal/backupdir"
	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/hypervisor"
	"github.com/kwandrews/drydock/internal/meta"
	"github.com/kwandrews/drydock/internal/naming"
	"github.com/kwandrews/drydock/internal/transfer"
	"github.com/kwandrews/drydock/internal/volume"
)

// BackupRequest describes one backup operation.
type BackupRequest struct {
	// Name is the source VM.
	Name string

	// Store is the backup directory, local or remote.
	Store backupdir.Store

	// Remote streams the image over SSH when set; control artifacts
	// still go through Store.
	Remote transfer.RemoteHost

	// Compression is none, gzip, or bzip2.
	Compression string

	// Command is the invoking command line, recorded in meta.txt.
	Command string

	// Now is the operation timestamp.
	Now TimeSource
}

// Backup snapshots a VM's storage and writes its metadata, definition
// document, and disk image into the backup directory.
//
// The suspend/snapshot/resume bracket quiesces disk writes so the
// snapshot is crash consistent. The snapshot is removed on every exit
// path after it was created, success or failure.
func (e *Engine) Backup(ctx context.Context, req BackupRequest) (err error) {
	e.advance(PhaseIdle)

	if err := e.fleet.Refresh(ctx); err != nil {
		return e.fail(err)
	}

	vm, err := e.fleet.VM(req.Name)
	if err != nil {
		return e.fail(errdefs.Wrapf(errdefs.KindValidation, "backup", err,
			"could not find VM named %q", req.Name))
	}
	if vm.Disk == "" {
		return e.fail(errdefs.New(errdefs.KindValidation, "backup",
			"VM %q has no block storage to snapshot", req.Name))
	}

	src := meta.BuildSource(vm, req.Command, req.Compression, orNow(req.Now)())
	e.advance(PhaseMetadataPrepared)
	e.advance(PhaseVerified)
	e.advance(PhaseConflictsResolved)

	snapshotName := naming.SnapshotName(vm.Name)
	snapshotPath := naming.SnapshotPath(vm.Disk)

	// Suspend a running source for the duration of snapshot creation.
	// The deferred resume covers snapshot failure; the normal path
	// resumes immediately after the snapshot exists.
	suspended := false
	if vm.State == hypervisor.StateRunning {
		if err := e.domains.Suspend(ctx, vm.Name); err != nil {
			return e.fail(err)
		}
		suspended = true
		defer func() {
			if suspended {
				if rerr := e.domains.Resume(ctx, vm.Name); rerr != nil {
					e.log.Error().Err(rerr).Str("vm", vm.Name).Msg("could not resume VM")
				}
			}
		}()
	}

	if err := e.volumes.CreateSnapshot(ctx, vm.VolumeGroup, vm.Disk, snapshotName, volume.SnapshotSize); err != nil {
		return e.fail(err)
	}
	defer func() {
		// A snapshot created by a backup is always removed, even when
		// a later step failed. Leaking one would fill up as the source
		// keeps writing.
		if rerr := e.volumes.Remove(ctx, snapshotPath); rerr != nil {
			e.log.Error().Err(rerr).Str("path", snapshotPath).Msg("could not remove snapshot")
			if err == nil {
				err = e.fail(rerr)
			}
		}
	}()

	if suspended {
		if err := e.domains.Resume(ctx, vm.Name); err != nil {
			return e.fail(err)
		}
		suspended = false
	}
	e.advance(PhaseStorageReady)

	if err := req.Store.Ensure(); err != nil {
		return e.fail(err)
	}
	if err := req.Store.WriteMeta(src); err != nil {
		return e.fail(err)
	}
	if err := req.Store.WriteXML(naming.XMLFileName(vm.Name), vm.XML); err != nil {
		return e.fail(err)
	}

	e.printf("Backup VM %q to %q", vm.Name, req.Store.Describe())
	e.printf("%s", src.Summary("Source"))

	imagePath := req.Store.Resolve(src.Image)
	e.printf("Backing up VM disk image. This will take time.")
	if req.Remote != nil {
		err = e.mover.Push(ctx, req.Remote, snapshotPath, imagePath, src.Compression)
	} else {
		err = e.mover.Export(ctx, snapshotPath, imagePath, src.Compression)
	}
	if err != nil {
		return e.fail(err)
	}
	e.advance(PhaseDataTransferred)
	e.advance(PhaseRegistered)
	e.advance(PhaseFinalized)
	e.rec.Record("success", "completed backup of VM "+vm.Name)

	return nil
}
