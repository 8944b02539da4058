package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kwandrews/drydock/internal/inventory"
)

// YAMLFormatter formats resources as YAML.
type YAMLFormatter struct{}

// FormatVM formats a single guest as YAML.
func (f *YAMLFormatter) FormatVM(vm inventory.VM) (string, error) {
	data, err := yaml.Marshal(viewOf(vm))
	if err != nil {
		return "", fmt.Errorf("failed to marshal VM to YAML: %w", err)
	}

	return string(data), nil
}

// FormatVMList formats a list of guests as a YAML stream
// (multiple documents separated by ---).
func (f *YAMLFormatter) FormatVMList(vms []inventory.VM) (string, error) {
	if len(vms) == 0 {
		return "", nil
	}

	var buf bytes.Buffer

	for i, vm := range vms {
		data, err := yaml.Marshal(viewOf(vm))
		if err != nil {
			return "", fmt.Errorf("failed to marshal VM %s to YAML: %w", vm.Name, err)
		}

		if i > 0 {
			buf.WriteString("---\n")
		}

		buf.Write(data)
	}

	return buf.String(), nil
}
