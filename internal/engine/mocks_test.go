package engine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kwandrews/drydock/internal/conflict"
	"github.com/kwandrews/drydock/internal/inventory"
	"github.com/kwandrews/drydock/internal/meta"
	"github.com/kwandrews/drydock/internal/transfer"
)

// journal records cross-mock call order so tests can assert sequencing
// (suspend before snapshot, snapshot removal after transfer, and so on).
type journal struct {
	events []string
}

func (j *journal) add(format string, args ...any) {
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) index(event string) int {
	for i, e := range j.events {
		if e == event {
			return i
		}
	}
	return -1
}

func (j *journal) has(event string) bool { return j.index(event) >= 0 }

// mockDomains is a mock domainController with call tracking.
type mockDomains struct {
	j *journal

	suspendErr   error
	resumeErr    error
	startErr     error
	autostartErr error
	defineErr    error

	definedXML []string
}

func (m *mockDomains) Suspend(_ context.Context, name string) error {
	m.j.add("suspend:%s", name)
	return m.suspendErr
}

func (m *mockDomains) Resume(_ context.Context, name string) error {
	m.j.add("resume:%s", name)
	return m.resumeErr
}

func (m *mockDomains) Start(_ context.Context, name string) error {
	m.j.add("start:%s", name)
	return m.startErr
}

func (m *mockDomains) Autostart(_ context.Context, name string) error {
	m.j.add("autostart:%s", name)
	return m.autostartErr
}

func (m *mockDomains) Define(_ context.Context, xml string) error {
	m.j.add("define")
	m.definedXML = append(m.definedXML, xml)
	return m.defineErr
}

// mockFleet is a mock fleetSource backed by a map.
type mockFleet struct {
	j   *journal
	vms map[string]inventory.VM

	refreshErr error
}

func (m *mockFleet) Refresh(context.Context) error {
	m.j.add("refresh")
	return m.refreshErr
}

func (m *mockFleet) VM(name string) (inventory.VM, error) {
	vm, ok := m.vms[name]
	if !ok {
		return inventory.VM{}, fmt.Errorf("no VM named %q", name)
	}
	return vm, nil
}

func (m *mockFleet) Count() int { return len(m.vms) }

func (m *mockFleet) MACInUse(mac string) bool {
	for _, vm := range m.vms {
		if vm.MAC == mac {
			return true
		}
	}
	return false
}

// mockVolumes is a mock volumeLifecycle with failure injection.
type mockVolumes struct {
	j *journal

	createErr   error
	snapshotErr error
	removeErr   error

	created [][3]string // size, lv, vg
	removed []string
}

func (m *mockVolumes) Create(_ context.Context, size, lv, vg string) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.j.add("lvcreate:%s/%s:%s", vg, lv, size)
	m.created = append(m.created, [3]string{size, lv, vg})
	return nil
}

func (m *mockVolumes) CreateSnapshot(_ context.Context, sourceVG, sourcePath, snapshotName, size string) error {
	if m.snapshotErr != nil {
		return m.snapshotErr
	}
	m.j.add("snapshot:%s", snapshotName)
	return nil
}

func (m *mockVolumes) Remove(_ context.Context, lvPath string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.j.add("lvremove:%s", lvPath)
	m.removed = append(m.removed, lvPath)
	return nil
}

// mockMover is a mock imageMover with failure injection.
type mockMover struct {
	j *journal

	exportErr error
	importErr error
	pushErr   error
	fetchErr  error
}

func (m *mockMover) Export(_ context.Context, sourcePath, targetPath, compression string) error {
	m.j.add("export:%s->%s", sourcePath, targetPath)
	return m.exportErr
}

func (m *mockMover) Import(_ context.Context, sourcePath, targetPath, compression string) error {
	m.j.add("import:%s->%s", sourcePath, targetPath)
	return m.importErr
}

func (m *mockMover) Push(_ context.Context, _ transfer.RemoteHost, sourcePath, remotePath, compression string) error {
	m.j.add("push:%s->%s", sourcePath, remotePath)
	return m.pushErr
}

func (m *mockMover) Fetch(_ context.Context, _ transfer.RemoteHost, remotePath, targetPath, compression string) error {
	m.j.add("fetch:%s->%s", remotePath, targetPath)
	return m.fetchErr
}

// mockVerifier is a mock targetVerifier.
type mockVerifier struct {
	err error
}

func (m *mockVerifier) Verify(context.Context, meta.Metadata) error { return m.err }

// mockResolver is a mock conflictResolver.
type mockResolver struct {
	j *journal

	err        error
	candidates [][]conflict.Candidate
}

func (m *mockResolver) Resolve(_ context.Context, candidates []conflict.Candidate) error {
	m.j.add("conflicts")
	m.candidates = append(m.candidates, candidates)
	return m.err
}

// testEngine bundles an Engine with its mocks. Temporary definition
// files are captured in memory instead of touching the working
// directory.
type testEngine struct {
	engine  *Engine
	j       *journal
	domains *mockDomains
	fleet   *mockFleet
	volumes *mockVolumes
	mover   *mockMover
	resolve *mockResolver
	verify  *mockVerifier

	tempFiles map[string]string
}

func newTestEngine() *testEngine {
	j := &journal{}
	te := &testEngine{
		j:         j,
		domains:   &mockDomains{j: j},
		fleet:     &mockFleet{j: j, vms: map[string]inventory.VM{}},
		volumes:   &mockVolumes{j: j},
		mover:     &mockMover{j: j},
		resolve:   &mockResolver{j: j},
		verify:    &mockVerifier{},
		tempFiles: map[string]string{},
	}

	te.engine = New(Deps{
		Domains:   te.domains,
		Fleet:     te.fleet,
		Volumes:   te.volumes,
		Mover:     te.mover,
		Verifier:  te.verify,
		Conflicts: te.resolve,
	})
	te.engine.SetOutput(discard{})
	te.engine.writeFile = func(path string, data []byte) error {
		te.tempFiles[path] = string(data)
		return nil
	}
	te.engine.removeFile = func(path string) error {
		delete(te.tempFiles, path)
		return nil
	}
	return te
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// fakeRemote satisfies transfer.RemoteHost; the mock mover never
// actually streams through it.
type fakeRemote struct{}

func (fakeRemote) Start([]string, io.Reader) (io.Reader, func() error, error) {
	return strings.NewReader(""), func() error { return nil }, nil
}
