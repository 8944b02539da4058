package meta

import (
	"context"

	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/inventory"
)

// volumeGroupSource is the slice of the inventory the verifier reads.
type volumeGroupSource interface {
	VolumeGroup(name string) (inventory.VolumeGroup, error)
}

// probeRunner runs a command purely for its exit status.
type probeRunner interface {
	RunOK(ctx context.Context, argv []string) bool
}

// Verifier checks target metadata against host reality before any
// destructive step runs.
type Verifier struct {
	Inventory volumeGroupSource
	Runner    probeRunner
}

// Verify fails when the target volume group is missing or too small,
// the bridge device does not exist, or the MAC ended up empty.
func (v Verifier) Verify(ctx context.Context, target Metadata) error {
	vg, err := v.Inventory.VolumeGroup(target.VolumeGroup)
	if err != nil {
		return errdefs.New(errdefs.KindValidation, "meta.verify",
			"the target volume group does not exist on the local machine: %q", target.VolumeGroup)
	}

	free, err := inventory.ParseSizeG(vg.Free)
	if err != nil {
		return errdefs.Wrapf(errdefs.KindValidation, "meta.verify", err,
			"unreadable free space for volume group %q", target.VolumeGroup)
	}
	want, err := inventory.ParseSizeG(target.LogicalVolumeSize)
	if err != nil {
		return errdefs.Wrapf(errdefs.KindValidation, "meta.verify", err,
			"unreadable requested volume size %q", target.LogicalVolumeSize)
	}
	if free <= want {
		return errdefs.New(errdefs.KindValidation, "meta.verify",
			"the target volume group %q does not have enough space for a new %s logical volume (%s free)",
			target.VolumeGroup, target.LogicalVolumeSize, vg.Free)
	}

	if !v.Runner.RunOK(ctx, []string{"ip", "link", "show", "dev", target.Bridge}) {
		return errdefs.New(errdefs.KindValidation, "meta.verify",
			"the target bridge does not exist: %q", target.Bridge)
	}

	if target.MAC == "" {
		return errdefs.New(errdefs.KindValidation, "meta.verify",
			"the target MAC address can not be empty")
	}

	return nil
}
