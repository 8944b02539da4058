package output

import (
	"encoding/json"
	"fmt"

	"github.com/kwandrews/drydock/internal/inventory"
)

// JSONFormatter formats resources as JSON.
type JSONFormatter struct{}

// FormatVM formats a single guest as JSON.
func (f *JSONFormatter) FormatVM(vm inventory.VM) (string, error) {
	data, err := json.MarshalIndent(viewOf(vm), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal VM to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatVMList formats a list of guests as a JSON array.
func (f *JSONFormatter) FormatVMList(vms []inventory.VM) (string, error) {
	if len(vms) == 0 {
		return "[]\n", nil
	}

	views := make([]vmView, 0, len(vms))
	for _, vm := range vms {
		views = append(views, viewOf(vm))
	}

	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal VMs to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
