// Package backupdir abstracts the directory a backup lives in, local
// or remote, so the engine reads and writes control artifacts the same
// way in both cases. Disk images are not handled here; they stream
// through the transfer pipelines.
package backupdir

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/meta"
	"github.com/kwandrews/drydock/internal/naming"
)

// Store is one backup directory holding meta.txt, the definition
// document and the disk image.
type Store interface {
	// Ensure creates the directory if it is missing.
	Ensure() error
	// ReadMeta loads and parses meta.txt.
	ReadMeta() (meta.Metadata, error)
	// WriteMeta persists the record as meta.txt.
	WriteMeta(m meta.Metadata) error
	// ReadXML loads the artifact at the metadata's relative reference.
	ReadXML(ref string) (string, error)
	// WriteXML persists a definition document at the relative reference.
	WriteXML(ref, xml string) error
	// HasFile reports whether the artifact at the relative reference
	// exists.
	HasFile(ref string) bool
	// Resolve turns a relative artifact reference into the path dd (or
	// remote dd) can address.
	Resolve(ref string) string
	// Describe names the directory for messages and logs.
	Describe() string
}

// Local is a backup directory on the host filesystem.
type Local struct {
	Dir string
}

// NewLocal returns a Store over a local directory.
func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

func (l *Local) Ensure() error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "backupdir", err,
			"could not create storage directory %q", l.Dir)
	}
	return nil
}

func (l *Local) ReadMeta() (meta.Metadata, error) {
	return meta.LoadFile(l.Resolve(naming.MetaFileName))
}

func (l *Local) WriteMeta(m meta.Metadata) error {
	raw, err := m.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(l.Resolve(naming.MetaFileName), raw, 0o644); err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "backupdir", err,
			"could not write metadata in %q", l.Dir)
	}
	return nil
}

func (l *Local) ReadXML(ref string) (string, error) {
	raw, err := os.ReadFile(l.Resolve(ref))
	if err != nil {
		return "", errdefs.Wrapf(errdefs.KindResource, "backupdir", err,
			"could not read definition document %q in %q", ref, l.Dir)
	}
	return string(raw), nil
}

func (l *Local) WriteXML(ref, xml string) error {
	if err := os.WriteFile(l.Resolve(ref), []byte(xml), 0o644); err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "backupdir", err,
			"could not write definition document %q in %q", ref, l.Dir)
	}
	return nil
}

func (l *Local) HasFile(ref string) bool {
	info, err := os.Stat(l.Resolve(ref))
	return err == nil && info.Mode().IsRegular()
}

func (l *Local) Resolve(ref string) string {
	return filepath.Join(l.Dir, strings.TrimPrefix(ref, "./"))
}

func (l *Local) Describe() string {
	return l.Dir
}

// remoteFS is the file surface of transport.Endpoint.
type remoteFS interface {
	MkdirAll(path string) error
	WriteFile(path string, data []byte, mode os.FileMode) error
	ReadFile(path string) ([]byte, error)
	FileExists(path string) bool
}

// Remote is a backup directory on a remote host reached over SSH.
type Remote struct {
	Dir     string
	Address string // user@host, for messages only

	fs remoteFS
}

// NewRemote returns a Store over a directory on the remote endpoint.
func NewRemote(fs remoteFS, address, dir string) *Remote {
	return &Remote{Dir: dir, Address: address, fs: fs}
}

func (r *Remote) Ensure() error {
	if err := r.fs.MkdirAll(r.Dir); err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "backupdir", err,
			"could not create remote storage directory %q", r.Describe())
	}
	return nil
}

func (r *Remote) ReadMeta() (meta.Metadata, error) {
	raw, err := r.fs.ReadFile(r.Resolve(naming.MetaFileName))
	if err != nil {
		return meta.Metadata{}, errdefs.Wrapf(errdefs.KindResource, "backupdir", err,
			"the required meta.txt file does not exist in remote directory %q", r.Describe())
	}
	return meta.Parse(raw)
}

func (r *Remote) WriteMeta(m meta.Metadata) error {
	raw, err := m.Encode()
	if err != nil {
		return err
	}
	if err := r.fs.WriteFile(r.Resolve(naming.MetaFileName), raw, 0o644); err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "backupdir", err,
			"could not write metadata in remote directory %q", r.Describe())
	}
	return nil
}

func (r *Remote) ReadXML(ref string) (string, error) {
	raw, err := r.fs.ReadFile(r.Resolve(ref))
	if err != nil {
		return "", errdefs.Wrapf(errdefs.KindResource, "backupdir", err,
			"could not read definition document %q in remote directory %q", ref, r.Describe())
	}
	return string(raw), nil
}

func (r *Remote) WriteXML(ref, xml string) error {
	if err := r.fs.WriteFile(r.Resolve(ref), []byte(xml), 0o644); err != nil {
		return errdefs.Wrapf(errdefs.KindResource, "backupdir", err,
			"could not write definition document %q in remote directory %q", ref, r.Describe())
	}
	return nil
}

func (r *Remote) HasFile(ref string) bool {
	return r.fs.FileExists(r.Resolve(ref))
}

func (r *Remote) Resolve(ref string) string {
	return path.Join(r.Dir, strings.TrimPrefix(ref, "./"))
}

func (r *Remote) Describe() string {
	return fmt.Sprintf("%s:%s", r.Address, r.Dir)
}
