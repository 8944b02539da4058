package engine

import (
	"context"

	"github.com/kwandrews/drydock/internal/backupdir"
	"github.com/kwandrews/drydock/internal/conflict"
	"github.com/kwandrews/drydock/internal/definition"
	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/meta"
	"github.com/kwandrews/drydock/internal/naming"
	"github.com/kwandrews/drydock/internal/transfer"
)

// ImportRequest describes one import operation.
type ImportRequest struct {
	// Store is the backup directory to import from.
	Store backupdir.Store

	// Remote streams the image over SSH when set.
	Remote transfer.RemoteHost

	// Overrides retarget the imported VM; unset fields keep the
	// source's values.
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

// Import registers a new VM from a backup directory: load and retarget
// the metadata, verify capacity, rewrite the definition document,
// clear fleet conflicts, create the target volume, stream the image
// in, and define the result.
func (e *Engine) Import(ctx context.Context, req ImportRequest) (meta.Metadata, error) {
	e.advance(PhaseIdle)

	if err := e.fleet.Refresh(ctx); err != nil {
		return meta.Metadata{}, e.fail(err)
	}

	src, target, targetXML, tempPath, err := e.prepareTarget(ctx, req.Store, meta.ActionImport, req.Overrides, orNow(req.Now))
	if err != nil {
		return meta.Metadata{}, err
	}

	e.printf("Importing a VM from %q to a new VM named %q", req.Store.Describe(), target.Name)

	if err := e.conflicts.Resolve(ctx, conflict.TargetCandidates(target)); err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	e.advance(PhaseConflictsResolved)

	if err := e.volumes.Create(ctx, target.LogicalVolumeSize, target.LogicalVolume, target.VolumeGroup); err != nil {
		return meta.Metadata{}, e.fail(err)
	}
	e.advance(PhaseStorageReady)

	e.printf("Importing VM disk image. This will take time.")
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
	e.rec.Record("success", "imported VM "+target.Name)
	e.guestConfigNote()

	return target, nil
}

// prepareTarget runs the shared head of import and directory-based
// clone: load the source metadata, resolve and verify the target,
// rewrite the definition document, and stage it in a timestamped
// temporary file.
func (e *Engine) prepareTarget(ctx context.Context, store backupdir.Store, action meta.Action, ov meta.Overrides, now TimeSource) (src, target meta.Metadata, targetXML, tempPath string, err error) {
	fail := func(err error) (meta.Metadata, meta.Metadata, string, string, error) {
		return meta.Metadata{}, meta.Metadata{}, "", "", e.fail(err)
	}

	src, err = store.ReadMeta()
	if err != nil {
		return fail(err)
	}

	target, err = meta.ResolveTarget(src, action, ov, e.newMAC)
	if err != nil {
		return fail(err)
	}
	e.advance(PhaseMetadataPrepared)

	if err := e.verifier.Verify(ctx, target); err != nil {
		return fail(err)
	}
	e.advance(PhaseVerified)

	e.printf("%s", src.Summary("Source"))
	e.printf("%s", target.Summary("Target"))

	if !store.HasFile(src.XML) {
		return fail(errdefs.New(errdefs.KindValidation, string(action),
			"the required XML file %q does not exist in %q", src.XML, store.Describe()))
	}
	if !store.HasFile(src.Image) {
		return fail(errdefs.New(errdefs.KindValidation, string(action),
			"the required VM image file %q does not exist in %q", src.Image, store.Describe()))
	}

	sourceXML, err := store.ReadXML(src.XML)
	if err != nil {
		return fail(err)
	}

	targetXML, err = definition.Transform(sourceXML, src, target, action)
	if err != nil {
		return fail(err)
	}

	tempPath = naming.TempXMLName(target.Name, now().Format(meta.TimestampFormat))
	if err := e.writeFile(tempPath, []byte(targetXML)); err != nil {
		return fail(err)
	}

	return src, target, targetXML, tempPath, nil
}
