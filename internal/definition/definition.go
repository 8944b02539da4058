// Package definition rewrites domain definition documents for a new
// identity. Substitution is exact-substring on the handful of fields
// that change between source and target; each source value must be
// present verbatim or the rewrite refuses to proceed, which guards
// against schema drift in the document.
package definition

import (
	"strings"

	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/meta"
)

type substitution struct {
	field  string
	source string
	target string
}

// Transform produces a target definition document from a source one by
// replacing the name, storage source, MAC address and bridge fields.
// For clones the unique-identifier element is removed entirely; the
// hypervisor assigns a fresh one when the document is registered.
func Transform(sourceXML string, src, target meta.Metadata, action meta.Action) (string, error) {
	if sourceXML == "" {
		return "", errdefs.New(errdefs.KindTransform, "definition",
			"could not create target definition, source document is empty")
	}

	subs := []substitution{
		{
			field:  "name",
			source: "<name>" + src.Name + "</name>",
			target: "<name>" + target.Name + "</name>",
		},
		{
			field:  "disk",
			source: "<source dev='" + src.Disk + "'/>",
			target: "<source dev='" + target.Disk + "'/>",
		},
		{
			field:  "mac",
			source: "<mac address='" + src.MAC + "'/>",
			target: "<mac address='" + target.MAC + "'/>",
		},
		{
			field:  "bridge",
			source: "<source bridge='" + src.Bridge + "'/>",
			target: "<source bridge='" + target.Bridge + "'/>",
		},
	}
	if action == meta.ActionClone {
		subs = append(subs, substitution{
			field:  "uuid",
			source: "<uuid>" + src.UUID + "</uuid>",
			target: "",
		})
	}

	out := sourceXML
	for _, sub := range subs {
		if !strings.Contains(out, sub.source) {
			return "", errdefs.New(errdefs.KindTransform, "definition",
				"could not create target definition, %s value %q not found in source document",
				sub.field, sub.source)
		}
		out = strings.ReplaceAll(out, sub.source, sub.target)
	}

	return out, nil
}
