package engine

import (
	"context"

	"github.com/kwandrews/drydock/internal/backupdir"
	"github.com/kwandrews/drydock/internal/conflict"
	"github.com/kwandrews/drydock/internal/definition"
	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/hypervisor"
	"github.com/kwandrews/drydock/internal/meta"
	"github.com/kwandrews/drydock/internal/naming"
	"github.com/kwandrews/drydock/internal/transfer"
	"github.com/kwandrews/drydock/internal/volume"
)

// CloneRequest describes one clone operation. Exactly one source
// variant applies: Live with Source naming a defined VM, or Store
// pointing at a backup directory (with Remote set for the remote
// variant).
type CloneRequest struct {
	// Source is the live source VM name. Empty for directory clones.
	Source string

	// Live clones from a currently defined VM instead of a backup.
	Live bool

	// Store is the backup directory for non-live clones.
	Store backupdir.Store

	// Remote streams the image over SSH when set.
	Remote transfer.RemoteHost

	// Overrides retarget the clone. Name is normally set.
	Overrides meta.Overrides

	// Start boots the VM after registration.
	Start bool

	// Autostart marks the VM to start with the host.
	Autostart bool

	// Command is the invoking command line.
	Command string

	// Now is the operation timestamp.
	Now TimeSource
}

// Clone produces a new VM from a live source or a backup directory.
// The clone gets a fresh MAC and hypervisor-assigned UUID unless
// overridden.
func (e *Engine) Clone(ctx context.Context, req CloneRequest) (meta.Metadata, error) {
	e.advance(PhaseIdle)

	if err := e.fleet.Refresh(ctx); err != nil {
		return meta.Metadata{}, e.fail(err)
	}

	var (
		target meta.Metadata
		err    error
	)
	if req.Live {
		target, err = e.cloneLive(ctx, req)
	} else {
		target, err = e.cloneFromStore(ctx, req)
	}
	if err != nil {
		return meta.Metadata{}, err
	}

	e.rec.Record("success", "cloned VM "+target.Name)
	e.guestConfigNote()
	return target, nil
}

// cloneFromStore handles the local and remote backup-directory variants.
func (e *Engine) cloneFromStore(ctx context.Context, req CloneRequest) (meta.Metadata, error) {
	src, target, targetXML, tempPath, err := e.prepareTarget(ctx, req.Store, meta.ActionClone, req.Overrides, orNow(req.Now))
	if err != nil {
		return meta.Metadata{}, err
	}

	e.printf("Cloning a VM from backup %q to a new VM named %q", req.Store.Describe(), target.Name)

	if err := e.conflicts.Resolve(ctx, conflict.TargetCandidates(target)); err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	e.advance(PhaseConflictsResolved)

	if err := e.volumes.Create(ctx, target.LogicalVolumeSize, target.LogicalVolume, target.VolumeGroup); err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	e.advance(PhaseStorageReady)

	e.printf("Cloning VM disk image. This will take time.")
	if req.Remote != nil {
		err = e.mover.Fetch(ctx, req.Remote, req.Store.Resolve(src.Image), target.Disk, src.Compression)
	} else {
		err = e.mover.Import(ctx, req.Store.Resolve(src.Image), target.Disk, src.Compression)
	}
	if err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	e.advance(PhaseDataTransferred)

	if err := e.register(ctx, target, targetXML, tempPath, req.Start, req.Autostart); err != nil {
		return meta.Metadata{}, err
	}
	return target, nil
}

// cloneLive snapshots a defined VM's storage and copies the snapshot
// into the new target volume. The same bracket and cleanup discipline
// as backup applies.
func (e *Engine) cloneLive(ctx context.Context, req CloneRequest) (_ meta.Metadata, err error) {
	vm, err := e.fleet.VM(req.Source)
	if err != nil {
		return meta.Metadata{}, e.fail(errdefs.Wrapf(errdefs.KindValidation, "clone", err,
			"could not find VM named %q", req.Source))
	}

	src := meta.BuildSource(vm, req.Command, meta.CompressionNone, orNow(req.Now)())
	target, err := meta.ResolveTarget(src, meta.ActionClone, req.Overrides, e.newMAC)
	if err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	e.advance(PhaseMetadataPrepared)

	if err := e.verifier.Verify(ctx, target); err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	e.advance(PhaseVerified)

	e.printf("Cloning a live VM %q to a new VM named %q", vm.Name, target.Name)
	e.printf("%s", src.Summary("Source"))
	e.printf("%s", target.Summary("Target"))

	targetXML, err := definition.Transform(vm.XML, src, target, meta.ActionClone)
	if err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	tempPath := naming.TempXMLName(target.Name, orNow(req.Now)().Format(meta.TimestampFormat))
	if err := e.writeFile(tempPath, []byte(targetXML)); err != nil {
		return meta.Metadata{}, e.fail(err)
	}

	// Conflicts are cleared before the snapshot exists so the cleanup
	// window stays as small as possible.
	if err := e.conflicts.Resolve(ctx, conflict.TargetCandidates(target)); err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	e.advance(PhaseConflictsResolved)

	sourcePath := vm.Disk
	if sourcePath == "" {
		sourcePath = vm.DiskFile
	}
	snapshotName := naming.SnapshotName(vm.Name)
	snapshotPath := naming.SnapshotPath(sourcePath)

	suspended := false
	if vm.State == hypervisor.StateRunning {
		if err := e.domains.Suspend(ctx, vm.Name); err != nil {
			return meta.Metadata{}, e.fail(err)
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

	if err := e.volumes.CreateSnapshot(ctx, vm.VolumeGroup, sourcePath, snapshotName, volume.SnapshotSize); err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	defer func() {
		// The snapshot is removed whether the copy below succeeded or
		// not; failing here would strand a copy-on-write volume that
		// grows as the source keeps writing.
		if rerr := e.volumes.Remove(ctx, snapshotPath); rerr != nil {
			e.log.Error().Err(rerr).Str("path", snapshotPath).Msg("could not remove snapshot")
			if err == nil {
				err = e.fail(rerr)
			}
		}
	}()

	if suspended {
		if err := e.domains.Resume(ctx, vm.Name); err != nil {
			return meta.Metadata{}, e.fail(err)
		}
		suspended = false
	}

	if err := e.volumes.Create(ctx, target.LogicalVolumeSize, target.LogicalVolume, target.VolumeGroup); err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	e.advance(PhaseStorageReady)

	e.printf("Cloning VM disk image. This will take time.")
	if err := e.mover.Import(ctx, snapshotPath, target.Disk, meta.CompressionNone); err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	e.advance(PhaseDataTransferred)

	if err := e.register(ctx, target, targetXML, tempPath, req.Start, req.Autostart); err != nil {
		return meta.Metadata{}, err
	}
	return target, nil
}
