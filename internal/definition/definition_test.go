package definition

import (
	"strings"
	"testing"

	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/meta"
)

const sourceXML = `<domain type='kvm'>
  <name>web01</name>
  <uuid>b78066c0-ffd9-4b58-8a05-5b0e00c0c0c9</uuid>
  <devices>
    <disk type='block' device='disk'>
      <source dev='/dev/vg_guests/web01'/>
    </disk>
    <interface type='bridge'>
      <mac address='52:54:00:aa:bb:cc'/>
      <source bridge='br0'/>
    </interface>
  </devices>
</domain>`

func testMetas() (meta.Metadata, meta.Metadata) {
	src := meta.Metadata{
		Name:   "web01",
		Disk:   "/dev/vg_guests/web01",
		MAC:    "52:54:00:aa:bb:cc",
		Bridge: "br0",
		UUID:   "b78066c0-ffd9-4b58-8a05-5b0e00c0c0c9",
	}
	target := meta.Metadata{
		Name:   "web02",
		Disk:   "/dev/vg_fast/web02",
		MAC:    "52:54:00:11:22:33",
		Bridge: "br1",
	}
	return src, target
}

func TestTransformClone(t *testing.T) {
	src, target := testMetas()

	out, err := Transform(sourceXML, src, target, meta.ActionClone)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	// Each target value appears exactly once, each source value is gone.
	pairs := []struct {
		want string
		gone string
	}{
		{"<name>web02</name>", "<name>web01</name>"},
		{"<source dev='/dev/vg_fast/web02'/>", "<source dev='/dev/vg_guests/web01'/>"},
		{"<mac address='52:54:00:11:22:33'/>", "<mac address='52:54:00:aa:bb:cc'/>"},
		{"<source bridge='br1'/>", "<source bridge='br0'/>"},
	}
	for _, p := range pairs {
		if got := strings.Count(out, p.want); got != 1 {
			t.Errorf("Count(%q) = %d, want 1", p.want, got)
		}
		if strings.Contains(out, p.gone) {
			t.Errorf("output still contains source value %q", p.gone)
		}
	}

	if strings.Contains(out, "<uuid>") {
		t.Error("clone output still contains a uuid element")
	}
}

func TestTransformImportKeepsUUID(t *testing.T) {
	src, target := testMetas()

	out, err := Transform(sourceXML, src, target, meta.ActionImport)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if !strings.Contains(out, "<uuid>"+src.UUID+"</uuid>") {
		t.Error("import output lost the uuid element")
	}
}

func TestTransformMissingField(t *testing.T) {
	src, target := testMetas()
	src.MAC = "52:54:00:99:99:99" // not in the document

	_, err := Transform(sourceXML, src, target, meta.ActionClone)
	if !errdefs.IsKind(err, errdefs.KindTransform) {
		t.Fatalf("Transform() error = %v, want transform kind", err)
	}
	if !strings.Contains(err.Error(), "mac") {
		t.Errorf("Transform() error %q does not name the missing field", err)
	}
}

func TestTransformEmptySource(t *testing.T) {
	src, target := testMetas()

	if _, err := Transform("", src, target, meta.ActionClone); !errdefs.IsKind(err, errdefs.KindTransform) {
		t.Errorf("Transform(\"\") error = %v, want transform kind", err)
	}
}
