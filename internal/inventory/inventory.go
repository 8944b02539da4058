// Package inventory maintains the host picture every operation works
// from: LVM volume groups, logical volumes, and the defined VM fleet.
//
// The picture is loaded on demand and cached; mutating packages call
// Refresh after changing host state so later reads see reality.
package inventory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"libvirt.org/go/libvirtxml"

	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/hypervisor"
)

// commandRunner is the subset of runner.Runner the inventory needs.
type commandRunner interface {
	Run(ctx context.Context, argv []string) (string, error)
}

// domainSource is the subset of hypervisor.Client the inventory needs.
type domainSource interface {
	ListDomains(ctx context.Context) ([]hypervisor.DomainSummary, error)
	DomainXML(ctx context.Context, name string) (string, error)
}

// VolumeGroup is one row of `vgs` output, keyed by column header.
type VolumeGroup struct {
	Name   string
	Size   string
	Free   string
	Fields map[string]string
}

// LogicalVolume is one row of `lvs` output, keyed by column header.
type LogicalVolume struct {
	Name   string
	VG     string
	Size   string
	Fields map[string]string
}

// VM is one defined domain plus the storage facts behind its disk.
type VM struct {
	Name          string
	State         string
	UUID          string
	Disk          string // block device path, empty for file-backed guests
	DiskFile      string // file path, set only when Disk is empty
	DiskSize      string
	LogicalVolume string
	VolumeGroup   string
	MAC           string
	Bridge        string
	XML           string
}

// Provider loads and caches the host inventory.
type Provider struct {
	runner  commandRunner
	domains domainSource
	log     zerolog.Logger

	vgs map[string]VolumeGroup
	lvs map[string]LogicalVolume
	vms map[string]VM
}

// New returns a Provider. The inventory is empty until Refresh runs.
func New(r commandRunner, d domainSource) *Provider {
	return &Provider{
		runner:  r,
		domains: d,
		log:     log.With().Str("component", "inventory").Logger(),
	}
}

// Refresh reloads the whole picture: volume groups, logical volumes,
// then the VM fleet (which cross-references the volume data).
func (p *Provider) Refresh(ctx context.Context) error {
	if err := p.loadVolumeGroups(ctx); err != nil {
		return err
	}
	if err := p.loadLogicalVolumes(ctx); err != nil {
		return err
	}
	return p.loadVMs(ctx)
}

func (p *Provider) loadVolumeGroups(ctx context.Context) error {
	p.log.Debug().Msg("loading volume group information")
	p.vgs = map[string]VolumeGroup{}

	out, err := p.runner.Run(ctx, []string{"vgs", "--separator=" + tableSeparator, "--units=g"})
	if err != nil {
		return fmt.Errorf("failed to list volume groups: %w", err)
	}

	rows, err := parseTable(out)
	if err != nil {
		return fmt.Errorf("failed to parse vgs output: %w", err)
	}
	for _, fields := range rows {
		vg := VolumeGroup{
			Name:   fields["VG"],
			Size:   fields["VSize"],
			Free:   fields["VFree"],
			Fields: fields,
		}
		p.vgs[vg.Name] = vg
		p.log.Trace().Str("vg", vg.Name).Str("size", vg.Size).Str("free", vg.Free).Msg("volume group parsed")
	}
	return nil
}

func (p *Provider) loadLogicalVolumes(ctx context.Context) error {
	p.log.Debug().Msg("loading logical volume information")
	p.lvs = map[string]LogicalVolume{}

	out, err := p.runner.Run(ctx, []string{"lvs", "--separator=" + tableSeparator, "--units=g"})
	if err != nil {
		return fmt.Errorf("failed to list logical volumes: %w", err)
	}

	rows, err := parseTable(out)
	if err != nil {
		return fmt.Errorf("failed to parse lvs output: %w", err)
	}
	for _, fields := range rows {
		lv := LogicalVolume{
			Name:   fields["LV"],
			VG:     fields["VG"],
			Size:   fields["LSize"],
			Fields: fields,
		}
		p.lvs[lvKey(lv.VG, lv.Name)] = lv
		p.log.Trace().Str("vg", lv.VG).Str("lv", lv.Name).Str("size", lv.Size).Msg("logical volume parsed")
	}
	return nil
}

func (p *Provider) loadVMs(ctx context.Context) error {
	p.log.Debug().Msg("loading virtual machine information")
	p.vms = map[string]VM{}

	domains, err := p.domains.ListDomains(ctx)
	if err != nil {
		return fmt.Errorf("failed to list domains: %w", err)
	}

	for _, d := range domains {
		xml, err := p.domains.DomainXML(ctx, d.Name)
		if err != nil {
			return fmt.Errorf("failed to load definition for %q: %w", d.Name, err)
		}

		vm, err := parseDomainXML(xml)
		if err != nil {
			return fmt.Errorf("failed to parse definition for %q: %w", d.Name, err)
		}
		vm.State = d.State

		// The disk path is not assumed to follow /dev/<vg>/<lv>; the
		// device mapper is asked directly.
		if vm.Disk != "" {
			if err := p.resolveDiskVolume(ctx, &vm); err != nil {
				p.log.Warn().Str("vm", vm.Name).Str("disk", vm.Disk).Err(err).
					Msg("disk path does not resolve to a logical volume")
			}
		}

		p.vms[vm.Name] = vm
		p.log.Trace().Str("vm", vm.Name).Str("state", vm.State).Msg("virtual machine parsed")
	}
	return nil
}

// resolveDiskVolume fills in LogicalVolume, VolumeGroup and DiskSize by
// asking lvs about the disk path itself.
func (p *Provider) resolveDiskVolume(ctx context.Context, vm *VM) error {
	out, err := p.runner.Run(ctx, []string{"lvs", "--separator=" + tableSeparator, "--units=g", vm.Disk})
	if err != nil {
		return err
	}
	rows, err := parseTable(out)
	if err != nil || len(rows) == 0 {
		return fmt.Errorf("no logical volume backs %s", vm.Disk)
	}
	vm.LogicalVolume = rows[0]["LV"]
	vm.VolumeGroup = rows[0]["VG"]
	vm.DiskSize = rows[0]["LSize"]
	return nil
}

// VolumeGroups returns all known volume groups.
func (p *Provider) VolumeGroups() []VolumeGroup {
	return lo.Values(p.vgs)
}

// VolumeGroup returns one volume group by name.
func (p *Provider) VolumeGroup(name string) (VolumeGroup, error) {
	vg, ok := p.vgs[name]
	if !ok {
		return VolumeGroup{}, errdefs.New(errdefs.KindResource, "inventory",
			"volume group %q does not exist on the host", name)
	}
	return vg, nil
}

// LogicalVolumes returns all known logical volumes.
func (p *Provider) LogicalVolumes() []LogicalVolume {
	return lo.Values(p.lvs)
}

// LogicalVolume returns one logical volume by group and name.
func (p *Provider) LogicalVolume(vg, lv string) (LogicalVolume, error) {
	v, ok := p.lvs[lvKey(vg, lv)]
	if !ok {
		return LogicalVolume{}, errdefs.New(errdefs.KindResource, "inventory",
			"logical volume %q does not exist in volume group %q", lv, vg)
	}
	return v, nil
}

// HasLogicalVolume reports whether the group holds the named volume.
func (p *Provider) HasLogicalVolume(vg, lv string) bool {
	_, ok := p.lvs[lvKey(vg, lv)]
	return ok
}

// VMs returns every defined VM.
func (p *Provider) VMs() []VM {
	return lo.Values(p.vms)
}

// VM returns one defined VM by name.
func (p *Provider) VM(name string) (VM, error) {
	vm, ok := p.vms[name]
	if !ok {
		return VM{}, errdefs.New(errdefs.KindResource, "inventory",
			"virtual machine %q is not defined on the host", name)
	}
	return vm, nil
}

// HasVM reports whether a VM with the given name is defined.
func (p *Provider) HasVM(name string) bool {
	_, ok := p.vms[name]
	return ok
}

// Count returns the number of defined VMs.
func (p *Provider) Count() int {
	return len(p.vms)
}

// MACInUse reports whether any defined VM already holds the address.
func (p *Provider) MACInUse(mac string) bool {
	return lo.SomeBy(lo.Values(p.vms), func(vm VM) bool {
		return vm.MAC == mac
	})
}

// Search returns the VMs whose attribute matches the value exactly.
// Recognized attributes: name, uuid, mac, bridge, disk, logical_volume,
// volume_group, state.
func (p *Provider) Search(attribute, value string) []VM {
	return lo.Filter(lo.Values(p.vms), func(vm VM, _ int) bool {
		switch attribute {
		case "name":
			return vm.Name == value
		case "uuid":
			return vm.UUID == value
		case "mac":
			return vm.MAC == value
		case "bridge":
			return vm.Bridge == value
		case "disk":
			return vm.Disk == value
		case "logical_volume":
			return vm.LogicalVolume == value
		case "volume_group":
			return vm.VolumeGroup == value
		case "state":
			return vm.State == value
		default:
			return false
		}
	})
}

func lvKey(vg, lv string) string {
	return vg + "/" + lv
}

// parseDomainXML extracts the fields drydock cares about from a domain
// definition document. Every field is optional; a guest with no block
// disk keeps Disk empty and records the file path instead.
func parseDomainXML(raw string) (VM, error) {
	var dom libvirtxml.Domain
	if err := dom.Unmarshal(raw); err != nil {
		return VM{}, err
	}

	vm := VM{
		Name: dom.Name,
		UUID: dom.UUID,
		XML:  raw,
	}
	if dom.Devices == nil {
		return vm, nil
	}

	for _, disk := range dom.Devices.Disks {
		if disk.Device != "disk" || disk.Source == nil {
			continue
		}
		if disk.Source.Block != nil && vm.Disk == "" {
			vm.Disk = disk.Source.Block.Dev
		}
		if disk.Source.File != nil && vm.DiskFile == "" {
			vm.DiskFile = disk.Source.File.File
		}
	}
	// A block disk wins over a file disk, same as the path a guest
	// actually boots from.
	if vm.Disk != "" {
		vm.DiskFile = ""
	}

	for _, iface := range dom.Devices.Interfaces {
		if iface.MAC != nil && vm.MAC == "" {
			vm.MAC = iface.MAC.Address
		}
		if iface.Source != nil && iface.Source.Bridge != nil && vm.Bridge == "" {
			vm.Bridge = iface.Source.Bridge.Bridge
		}
	}

	return vm, nil
}
