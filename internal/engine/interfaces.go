package engine

import (
	"context"

	"github.com/kwandrews/drydock/internal/conflict"
	"github.com/kwandrews/drydock/internal/inventory"
	"github.com/kwandrews/drydock/internal/meta"
	"github.com/kwandrews/drydock/internal/transfer"
)

// domainController is the hypervisor control-plane surface the engine
// needs. In production this is satisfied by *hypervisor.Client; tests
// use mock implementations.
type domainController interface {
	// Suspend pauses a running domain.
	Suspend(ctx context.Context, name string) error

	// Resume unpauses a suspended domain.
	Resume(ctx context.Context, name string) error

	// Start boots a defined domain.
	Start(ctx context.Context, name string) error

	// Autostart marks a domain to start with the host.
	Autostart(ctx context.Context, name string) error

	// Define registers a domain from its definition document.
	Define(ctx context.Context, xml string) error
}

// fleetSource is the inventory surface the engine needs. Satisfied by
// *inventory.Provider.
type fleetSource interface {
	// Refresh re-enumerates host state. Called after every mutation
	// the inventory cannot observe on its own.
	Refresh(ctx context.Context) error

	// VM returns the record for a named guest.
	VM(name string) (inventory.VM, error)

	// Count returns the fleet size, used to budget MAC generation.
	Count() int

	// MACInUse reports whether any guest already holds the address.
	MACInUse(mac string) bool
}

// volumeLifecycle is the storage surface the engine needs. Satisfied
// by *volume.Manager.
type volumeLifecycle interface {
	// Create allocates a new logical volume.
	Create(ctx context.Context, size, lv, vg string) error

	// CreateSnapshot takes a copy-on-write snapshot of a source volume.
	CreateSnapshot(ctx context.Context, sourceVG, sourcePath, snapshotName, size string) error

	// Remove deletes a logical volume or snapshot by path.
	Remove(ctx context.Context, lvPath string) error
}

// imageMover is the disk-image copy surface. Satisfied by
// *transfer.Service.
type imageMover interface {
	// Export streams a local volume into a local image file.
	Export(ctx context.Context, sourcePath, targetPath, compression string) error

	// Import streams a local image file into a local volume.
	Import(ctx context.Context, sourcePath, targetPath, compression string) error

	// Push streams a local volume to a file on a remote host.
	Push(ctx context.Context, remote transfer.RemoteHost, sourcePath, remotePath, compression string) error

	// Fetch streams a remote image file into a local volume.
	Fetch(ctx context.Context, remote transfer.RemoteHost, remotePath, targetPath, compression string) error
}

// targetVerifier checks a resolved target against host capacity.
// Satisfied by meta.Verifier.
type targetVerifier interface {
	Verify(ctx context.Context, target meta.Metadata) error
}

// conflictResolver clears fleet identity collisions before any
// destructive step. Satisfied by *conflict.Resolver.
type conflictResolver interface {
	Resolve(ctx context.Context, candidates []conflict.Candidate) error
}
