package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

// tableSeparator keeps LVM report columns splittable even when values
// contain whitespace.
const tableSeparator = "::"

// parseTable turns `vgs`/`lvs --separator=:: --units=g` output into one
// map per data row, keyed by the header row's column names.
func parseTable(out string) ([]map[string]string, error) {
	var rows []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("report contains no header row")
	}

	headers := splitTrimmed(rows[0])
	var parsed []map[string]string
	for _, row := range rows[1:] {
		segments := splitTrimmed(row)
		fields := map[string]string{}
		for i, h := range headers {
			if i < len(segments) {
				fields[h] = segments[i]
			}
		}
		parsed = append(parsed, fields)
	}
	return parsed, nil
}

func splitTrimmed(row string) []string {
	parts := strings.Split(row, tableSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ParseSizeG converts an LVM gigabyte figure like "232.00g" or
// "<931.51g" to a float. The leading "<" LVM prints for rounded-down
// values is ignored.
func ParseSizeG(size string) (float64, error) {
	s := strings.TrimSpace(size)
	s = strings.TrimPrefix(s, "<")
	s = strings.TrimSuffix(strings.ToLower(s), "g")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable size %q: %w", size, err)
	}
	return v, nil
}
