package meta

import (
	"testing"
)

func ptr(s string) *string { return &s }

func sourceMeta() Metadata {
	return Metadata{
		Date:          "20260314-0926",
		Command:       "drydock clone web01 web02",
		Name:          "web01",
		XML:           "./web01.xml",
		Image:         "./web01.img.bzip2",
		ImageSize:     "50.00g",
		Compression:   "bzip2",
		LogicalVolume: "web01",
		VolumeGroup:   "vg_guests",
		Bridge:        "br0",
		MAC:           "52:54:00:aa:bb:cc",
		UUID:          "b78066c0-ffd9-4b58-8a05-5b0e00c0c0c9",
		Disk:          "/dev/vg_guests/web01",
	}
}

func staticMAC(addr string) func() (string, error) {
	return func() (string, error) { return addr, nil }
}

func TestResolveTargetImportDefaults(t *testing.T) {
	src := sourceMeta()

	got, err := ResolveTarget(src, ActionImport, Overrides{}, staticMAC("unused"))
	if err != nil {
		t.Fatalf("ResolveTarget() error = %v", err)
	}

	// Unset overrides keep the source values, import keeps identity.
	if got.Name != src.Name {
		t.Errorf("Name = %q, want %q", got.Name, src.Name)
	}
	if got.UUID != src.UUID {
		t.Errorf("UUID = %q, want source UUID kept for import", got.UUID)
	}
	if got.MAC != src.MAC {
		t.Errorf("MAC = %q, want source MAC kept for import", got.MAC)
	}
	if got.LogicalVolumeSize != "50.00g" {
		t.Errorf("LogicalVolumeSize = %q, want image size default", got.LogicalVolumeSize)
	}
	if got.Disk != "/dev/vg_guests/web01" {
		t.Errorf("Disk = %q, want recomputed source path", got.Disk)
	}
}

func TestResolveTargetCloneDefaults(t *testing.T) {
	src := sourceMeta()

	got, err := ResolveTarget(src, ActionClone, Overrides{}, staticMAC("52:54:00:00:00:01"))
	if err != nil {
		t.Fatalf("ResolveTarget() error = %v", err)
	}

	if got.UUID != "" {
		t.Errorf("UUID = %q, want cleared for clone", got.UUID)
	}
	if got.MAC != "52:54:00:00:00:01" {
		t.Errorf("MAC = %q, want freshly generated for clone", got.MAC)
	}
}

func TestResolveTargetOverrides(t *testing.T) {
	src := sourceMeta()
	ov := Overrides{
		Name:              ptr("web02"),
		VolumeGroup:       ptr("vg_fast"),
		LogicalVolumeSize: ptr("60.00g"),
		Bridge:            ptr("br1"),
		MAC:               ptr("52:54:00:11:22:33"),
	}

	got, err := ResolveTarget(src, ActionClone, ov, staticMAC("unused"))
	if err != nil {
		t.Fatalf("ResolveTarget() error = %v", err)
	}

	if got.Name != "web02" {
		t.Errorf("Name = %q, want %q", got.Name, "web02")
	}
	if got.VolumeGroup != "vg_fast" {
		t.Errorf("VolumeGroup = %q, want %q", got.VolumeGroup, "vg_fast")
	}
	// A name override stands in for the logical volume when none is given.
	if got.LogicalVolume != "web02" {
		t.Errorf("LogicalVolume = %q, want name override", got.LogicalVolume)
	}
	if got.LogicalVolumeSize != "60.00g" {
		t.Errorf("LogicalVolumeSize = %q, want %q", got.LogicalVolumeSize, "60.00g")
	}
	if got.Bridge != "br1" {
		t.Errorf("Bridge = %q, want %q", got.Bridge, "br1")
	}
	if got.MAC != "52:54:00:11:22:33" {
		t.Errorf("MAC = %q, want explicit override", got.MAC)
	}
	if got.Disk != "/dev/vg_fast/web02" {
		t.Errorf("Disk = %q, want %q", got.Disk, "/dev/vg_fast/web02")
	}
}

func TestResolveTargetExplicitLogicalVolume(t *testing.T) {
	src := sourceMeta()
	ov := Overrides{
		Name:          ptr("web02"),
		LogicalVolume: ptr("lv_custom"),
	}

	got, err := ResolveTarget(src, ActionImport, ov, staticMAC("unused"))
	if err != nil {
		t.Fatalf("ResolveTarget() error = %v", err)
	}

	if got.LogicalVolume != "lv_custom" {
		t.Errorf("LogicalVolume = %q, want explicit override to win over name", got.LogicalVolume)
	}
	if got.Disk != "/dev/vg_guests/lv_custom" {
		t.Errorf("Disk = %q, want %q", got.Disk, "/dev/vg_guests/lv_custom")
	}
}
