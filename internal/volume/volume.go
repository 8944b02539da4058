// Package volume drives LVM logical volume lifecycle for drydock:
// create, snapshot and remove, with capacity and existence
// preconditions checked before any command is issued.
package volume

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/inventory"
)

// SnapshotSize is the copy-on-write headroom for backup snapshots. The
// snapshot only needs room for blocks changed while the backup reads.
const SnapshotSize = "2.00g"

// commandRunner is the subset of runner.Runner the manager needs.
type commandRunner interface {
	Run(ctx context.Context, argv []string) (string, error)
}

// volumeSource is the slice of the inventory the manager reads.
type volumeSource interface {
	VolumeGroup(name string) (inventory.VolumeGroup, error)
	HasLogicalVolume(vg, lv string) bool
	Refresh(ctx context.Context) error
}

// Manager creates, snapshots and removes logical volumes.
type Manager struct {
	runner    commandRunner
	inventory volumeSource
	log       zerolog.Logger

	// pathExists is swappable so tests run without device nodes.
	pathExists func(string) bool
}

// NewManager returns a Manager over the given runner and inventory.
func NewManager(r commandRunner, inv volumeSource) *Manager {
	return &Manager{
		runner:    r,
		inventory: inv,
		log:       log.With().Str("component", "volume").Logger(),
		pathExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

// HasSpace reports whether the volume group's free space strictly
// exceeds the requested size.
func (m *Manager) HasSpace(vg, requestedSize string) (bool, error) {
	group, err := m.inventory.VolumeGroup(vg)
	if err != nil {
		return false, err
	}
	free, err := inventory.ParseSizeG(group.Free)
	if err != nil {
		return false, err
	}
	want, err := inventory.ParseSizeG(requestedSize)
	if err != nil {
		return false, err
	}
	return free > want, nil
}

// Create makes a new logical volume. Fails before issuing any command
// when the volume already exists or the group lacks space.
func (m *Manager) Create(ctx context.Context, size, lv, vg string) error {
	vgPath := "/dev/" + vg
	lvPath := vgPath + "/" + lv

	if m.inventory.HasLogicalVolume(vg, lv) {
		return errdefs.New(errdefs.KindResource, "volume.create",
			"the logical volume already exists on the host machine: %q", lvPath)
	}

	ok, err := m.HasSpace(vg, size)
	if err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "volume.create", err,
			"could not check space in volume group %q", vg)
	}
	if !ok {
		return errdefs.New(errdefs.KindResource, "volume.create",
			"could not create LV sized %q in VG %q, not enough space", size, vgPath)
	}

	m.log.Info().Str("lv", lv).Str("vg", vg).Str("size", size).Msg("creating logical volume")
	if _, err := m.runner.Run(ctx, []string{"lvcreate", "-L", size, "-n", lv, vgPath}); err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "volume.create", err,
			"lvcreate failed for %q", lvPath)
	}
	return m.inventory.Refresh(ctx)
}

// CreateSnapshot takes a copy-on-write snapshot of the volume behind
// sourcePath. Size defaults to SnapshotSize when empty.
func (m *Manager) CreateSnapshot(ctx context.Context, sourceVG, sourcePath, snapshotName, size string) error {
	if size == "" {
		size = SnapshotSize
	}

	ok, err := m.HasSpace(sourceVG, size)
	if err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "volume.snapshot", err,
			"could not check space in volume group %q", sourceVG)
	}
	if !ok {
		return errdefs.New(errdefs.KindResource, "volume.snapshot",
			"could not create LV snapshot sized %q in VG %q, not enough space", size, sourceVG)
	}

	if !m.pathExists(sourcePath) {
		return errdefs.New(errdefs.KindResource, "volume.snapshot",
			"could not create LV snapshot of %q, path does not exist", sourcePath)
	}

	m.log.Info().Str("source", sourcePath).Str("snapshot", snapshotName).Str("size", size).
		Msg("creating snapshot")
	if _, err := m.runner.Run(ctx, []string{"lvcreate", "--snapshot", "-L", size, "-n", snapshotName, sourcePath}); err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "volume.snapshot", err,
			"lvcreate --snapshot failed for %q", sourcePath)
	}
	return m.inventory.Refresh(ctx)
}

// Remove deletes the logical volume at lvPath.
func (m *Manager) Remove(ctx context.Context, lvPath string) error {
	if !m.pathExists(lvPath) {
		return errdefs.New(errdefs.KindResource, "volume.remove",
			"could not remove LV %q, logical volume does not exist", lvPath)
	}

	m.log.Info().Str("path", lvPath).Msg("removing logical volume")
	if _, err := m.runner.Run(ctx, []string{"lvremove", "-f", lvPath}); err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "volume.remove", err,
			"lvremove failed for %q", lvPath)
	}
	return m.inventory.Refresh(ctx)
}
