package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/kwandrews/drydock/internal/inventory"
)

// TableFormatter formats resources as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatVM formats a single guest as a table row.
func (f *TableFormatter) FormatVM(vm inventory.VM) (string, error) {
	return f.FormatVMList([]inventory.VM{vm})
}

// FormatVMList formats a list of guests as a table.
func (f *TableFormatter) FormatVMList(vms []inventory.VM) (string, error) {
	if len(vms) == 0 {
		return "No VMs found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tSTATE\tDISK\tSIZE\tBRIDGE\tMAC")
	}

	for _, vm := range vms {
		state := vm.State
		if state == "" {
			state = "-"
		}

		disk := vm.Disk
		if disk == "" {
			disk = vm.DiskFile
		}
		if disk == "" {
			disk = "-"
		}

		size := vm.DiskSize
		if size == "" {
			size = "-"
		}

		bridge := vm.Bridge
		if bridge == "" {
			bridge = "-"
		}

		mac := vm.MAC
		if mac == "" {
			mac = "-"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			vm.Name, state, disk, size, bridge, mac)
	}

	_ = w.Flush()
	return buf.String(), nil
}
