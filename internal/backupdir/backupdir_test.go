package backupdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kwandrews/drydock/internal/meta"
)

func sampleMeta() meta.Metadata {
	return meta.Metadata{
		Date:          "20260314-0926",
		Command:       "drydock backup web01",
		Name:          "web01",
		XML:           "./web01.xml",
		Image:         "./web01.img.bzip2",
		ImageSize:     "50.00g",
		Compression:   "bzip2",
		LogicalVolume: "web01",
		VolumeGroup:   "vg_guests",
		Bridge:        "br0",
		MAC:           "52:54:00:aa:bb:cc",
		UUID:          "b78066c0-ffd9-4b58-8a05-5b0e00c0c0c9",
		Disk:          "/dev/vg_guests/web01",
	}
}

func TestLocalRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups", "web01")
	store := NewLocal(dir)

	if err := store.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	m := sampleMeta()
	if err := store.WriteMeta(m); err != nil {
		t.Fatalf("WriteMeta() error = %v", err)
	}
	got, err := store.ReadMeta()
	if err != nil {
		t.Fatalf("ReadMeta() error = %v", err)
	}
	if got != m {
		t.Errorf("ReadMeta() = %+v, want %+v", got, m)
	}

	xml := "<domain><name>web01</name></domain>"
	if err := store.WriteXML(m.XML, xml); err != nil {
		t.Fatalf("WriteXML() error = %v", err)
	}
	gotXML, err := store.ReadXML(m.XML)
	if err != nil {
		t.Fatalf("ReadXML() error = %v", err)
	}
	if gotXML != xml {
		t.Errorf("ReadXML() = %q, want %q", gotXML, xml)
	}

	if !store.HasFile("./web01.xml") {
		t.Error("HasFile(./web01.xml) = false, want true")
	}
	if store.HasFile("./web01.img.bzip2") {
		t.Error("HasFile(image) = true, want false before any image write")
	}
}

func TestLocalResolveStripsDotSlash(t *testing.T) {
	store := NewLocal("/srv/backups/web01")

	if got := store.Resolve("./web01.img"); got != "/srv/backups/web01/web01.img" {
		t.Errorf("Resolve() = %q, want %q", got, "/srv/backups/web01/web01.img")
	}
	if got := store.Resolve("meta.txt"); got != "/srv/backups/web01/meta.txt" {
		t.Errorf("Resolve() = %q, want %q", got, "/srv/backups/web01/meta.txt")
	}
}

// fakeRemoteFS keeps remote files in a map.
type fakeRemoteFS struct {
	files map[string][]byte
	dirs  []string
}

func (f *fakeRemoteFS) MkdirAll(path string) error {
	f.dirs = append(f.dirs, path)
	return nil
}

func (f *fakeRemoteFS) WriteFile(path string, data []byte, _ os.FileMode) error {
	f.files[path] = data
	return nil
}

func (f *fakeRemoteFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (f *fakeRemoteFS) FileExists(path string) bool {
	_, ok := f.files[path]
	return ok
}

func TestRemoteRoundTrip(t *testing.T) {
	fs := &fakeRemoteFS{files: map[string][]byte{}}
	store := NewRemote(fs, "backup@vault.example.com", "/srv/backups/web01")

	if err := store.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if len(fs.dirs) != 1 || fs.dirs[0] != "/srv/backups/web01" {
		t.Errorf("dirs = %v, want the backup directory created", fs.dirs)
	}

	m := sampleMeta()
	if err := store.WriteMeta(m); err != nil {
		t.Fatalf("WriteMeta() error = %v", err)
	}
	got, err := store.ReadMeta()
	if err != nil {
		t.Fatalf("ReadMeta() error = %v", err)
	}
	if got != m {
		t.Errorf("ReadMeta() = %+v, want %+v", got, m)
	}

	if _, ok := fs.files["/srv/backups/web01/meta.txt"]; !ok {
		t.Errorf("meta.txt written at unexpected path: %v", fs.files)
	}

	if got := store.Describe(); got != "backup@vault.example.com:/srv/backups/web01" {
		t.Errorf("Describe() = %q", got)
	}
}

func TestRemoteReadMetaMissing(t *testing.T) {
	fs := &fakeRemoteFS{files: map[string][]byte{}}
	store := NewRemote(fs, "backup@vault.example.com", "/srv/backups/ghost")

	if _, err := store.ReadMeta(); err == nil {
		t.Error("ReadMeta() error = nil, want error for missing meta.txt")
	}
}
