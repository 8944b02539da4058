// Package output provides formatters for displaying host inventory
// in various formats (table, YAML, JSON).
package output

import (
	"fmt"

	"github.com/kwandrews/drydock/internal/inventory"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format for declarative consumption.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Formatter formats inventory resources for output.
type Formatter interface {
	// FormatVM formats a single guest.
	FormatVM(vm inventory.VM) (string, error)

	// FormatVMList formats a list of guests.
	FormatVMList(vms []inventory.VM) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}

// vmView is the serializable projection of a guest. The raw domain XML
// is deliberately left out of structured output.
type vmView struct {
	Name          string `json:"name" yaml:"name"`
	State         string `json:"state" yaml:"state"`
	UUID          string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Disk          string `json:"disk,omitempty" yaml:"disk,omitempty"`
	DiskFile      string `json:"disk_file,omitempty" yaml:"disk_file,omitempty"`
	DiskSize      string `json:"disk_size,omitempty" yaml:"disk_size,omitempty"`
	LogicalVolume string `json:"logical_volume,omitempty" yaml:"logical_volume,omitempty"`
	VolumeGroup   string `json:"volume_group,omitempty" yaml:"volume_group,omitempty"`
	MAC           string `json:"mac,omitempty" yaml:"mac,omitempty"`
	Bridge        string `json:"bridge,omitempty" yaml:"bridge,omitempty"`
}

func viewOf(vm inventory.VM) vmView {
	return vmView{
		Name:          vm.Name,
		State:         vm.State,
		UUID:          vm.UUID,
		Disk:          vm.Disk,
		DiskFile:      vm.DiskFile,
		DiskSize:      vm.DiskSize,
		LogicalVolume: vm.LogicalVolume,
		VolumeGroup:   vm.VolumeGroup,
		MAC:           vm.MAC,
		Bridge:        vm.Bridge,
	}
}
