// Package meta builds, retargets and verifies the metadata record that
// travels with every backup: the facts needed to reproduce or retarget
// a VM on another host.
package meta

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/inventory"
	"github.com/kwandrews/drydock/internal/naming"
)

// Action identifies which operation a metadata record was built for.
type Action string

const (
	ActionBackup Action = "backup"
	ActionImport Action = "import"
	ActionClone  Action = "clone"
)

// Compression kinds accepted on image pipelines.
const (
	CompressionNone  = "none"
	CompressionBzip2 = "bzip2"
	CompressionGzip  = "gzip"
)

// TimestampFormat is the layout used in metadata and artifact names.
const TimestampFormat = "20060102-1504"

// Metadata is the flat record persisted as meta.txt beside every
// backup. Paths for the definition document and image are relative to
// the backup directory.
type Metadata struct {
	Date              string `json:"date"`
	Command           string `json:"command"`
	Name              string `json:"name"`
	XML               string `json:"xml"`
	Image             string `json:"image"`
	ImageSize         string `json:"image_size"`
	Compression       string `json:"compression"`
	LogicalVolume     string `json:"logical_volume"`
	VolumeGroup       string `json:"volume_group"`
	Bridge            string `json:"bridge"`
	MAC               string `json:"mac"`
	UUID              string `json:"uuid"`
	Disk              string `json:"disk"`
	DiskFile          string `json:"disk_file"`
	LogicalVolumeSize string `json:"logical_volume_size,omitempty"`
}

// BuildSource assembles the metadata record for a source VM.
//
// When compression is in play the image size cannot be known ahead of
// time, so the source volume size is captured here; it sizes the new
// logical volume on import and clone.
func BuildSource(vm inventory.VM, command, compression string, now time.Time) Metadata {
	if compression == "" {
		compression = CompressionNone
	}

	return Metadata{
		Date:          now.Format(TimestampFormat),
		Command:       command,
		Name:          vm.Name,
		XML:           "./" + naming.XMLFileName(vm.Name),
		Image:         "./" + naming.ImageFileName(vm.Name, compression),
		ImageSize:     vm.DiskSize,
		Compression:   compression,
		LogicalVolume: vm.LogicalVolume,
		VolumeGroup:   vm.VolumeGroup,
		Bridge:        vm.Bridge,
		MAC:           vm.MAC,
		UUID:          vm.UUID,
		Disk:          vm.Disk,
		DiskFile:      vm.DiskFile,
	}
}

// Parse loads a metadata record from raw JSON.
func Parse(raw []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, errdefs.Wrapf(errdefs.KindValidation, "meta", err,
			"could not parse metadata, JSON appears to be malformed")
	}
	return m, nil
}

// LoadFile loads a metadata record from a meta.txt file on disk.
func LoadFile(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, errdefs.Wrapf(errdefs.KindResource, "meta", err,
			"could not read metadata file %q", path)
	}
	return Parse(raw)
}

// Encode renders the record as the JSON persisted to meta.txt.
func (m Metadata) Encode() ([]byte, error) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return append(out, '\n'), nil
}

// Summary renders the record for humans, printed before destructive
// work so the operator can see what is about to happen.
func (m Metadata) Summary(title string) string {
	rows := []struct {
		label string
		value string
	}{
		{"VM Name", m.Name},
		{"Disk File", m.DiskFile},
		{"Disk LVM", m.Disk},
		{"Logical Volume", m.LogicalVolume},
		{"Volume Group", m.VolumeGroup},
		{"XML File", m.XML},
		{"Disk Image File", m.Image},
		{"Disk Image File Size", m.ImageSize},
		{"Disk Image File Compression", m.Compression},
		{"VM UUID", m.UUID},
		{"VM Networking MAC Address", m.MAC},
		{"VM Networking Bridge", m.Bridge},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s:\n", title)
	for _, row := range rows {
		fmt.Fprintf(&b, "    %s: %s\n", row.label, row.value)
	}
	return b.String()
}
