package meta

import (
	"context"
	"strings"
	"testing"

	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/inventory"
)

type fakeVGSource struct {
	vgs map[string]inventory.VolumeGroup
}

func (f fakeVGSource) VolumeGroup(name string) (inventory.VolumeGroup, error) {
	vg, ok := f.vgs[name]
	if !ok {
		return inventory.VolumeGroup{}, errdefs.New(errdefs.KindResource, "inventory",
			"volume group %q does not exist on the host", name)
	}
	return vg, nil
}

type fakeProbe struct {
	okDevices map[string]bool
	calls     []string
}

func (f *fakeProbe) RunOK(_ context.Context, argv []string) bool {
	f.calls = append(f.calls, strings.Join(argv, " "))
	return f.okDevices[argv[len(argv)-1]]
}

func TestVerify(t *testing.T) {
	inv := fakeVGSource{vgs: map[string]inventory.VolumeGroup{
		"vg_guests": {Name: "vg_guests", Size: "931.51g", Free: "831.51g"},
		"vg_full":   {Name: "vg_full", Size: "100.00g", Free: "1.00g"},
	}}

	base := Metadata{
		VolumeGroup:       "vg_guests",
		LogicalVolumeSize: "50.00g",
		Bridge:            "br0",
		MAC:               "52:54:00:aa:bb:cc",
	}

	tests := []struct {
		name    string
		change  func(*Metadata)
		wantErr bool
	}{
		{"valid target", func(*Metadata) {}, false},
		{"missing volume group", func(m *Metadata) { m.VolumeGroup = "vg_ghost" }, true},
		{"insufficient space", func(m *Metadata) { m.VolumeGroup = "vg_full"; m.LogicalVolumeSize = "2.00g" }, true},
		{"exact space is not enough", func(m *Metadata) { m.VolumeGroup = "vg_full"; m.LogicalVolumeSize = "1.00g" }, true},
		{"missing bridge", func(m *Metadata) { m.Bridge = "br9" }, true},
		{"empty mac", func(m *Metadata) { m.MAC = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &fakeProbe{okDevices: map[string]bool{"br0": true}}
			v := Verifier{Inventory: inv, Runner: probe}

			target := base
			tt.change(&target)

			err := v.Verify(context.Background(), target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errdefs.IsKind(err, errdefs.KindValidation) {
				t.Errorf("Verify() error kind = %v, want validation", errdefs.KindOf(err))
			}
		})
	}
}

func TestVerifyProbesBridgeDevice(t *testing.T) {
	inv := fakeVGSource{vgs: map[string]inventory.VolumeGroup{
		"vg_guests": {Name: "vg_guests", Free: "831.51g"},
	}}
	probe := &fakeProbe{okDevices: map[string]bool{"br0": true}}
	v := Verifier{Inventory: inv, Runner: probe}

	target := Metadata{
		VolumeGroup:       "vg_guests",
		LogicalVolumeSize: "50.00g",
		Bridge:            "br0",
		MAC:               "52:54:00:aa:bb:cc",
	}
	if err := v.Verify(context.Background(), target); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	want := "ip link show dev br0"
	if len(probe.calls) != 1 || probe.calls[0] != want {
		t.Errorf("probe calls = %v, want [%q]", probe.calls, want)
	}
}
