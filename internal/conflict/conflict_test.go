package conflict

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/inventory"
	"github.com/kwandrews/drydock/internal/meta"
)

// fakeFleet serves searches from a mutable VM list so removals are
// visible to the next search.
type fakeFleet struct {
	vms []inventory.VM
}

func (f *fakeFleet) Search(attribute, value string) []inventory.VM {
	var out []inventory.VM
	for _, vm := range f.vms {
		match := false
		switch attribute {
		case "name":
			match = vm.Name == value
		case "mac":
			match = vm.MAC == value
		case "disk":
			match = vm.Disk == value
		case "uuid":
			match = vm.UUID == value
		}
		if match {
			out = append(out, vm)
		}
	}
	return out
}

func (f *fakeFleet) remove(name string) {
	var kept []inventory.VM
	for _, vm := range f.vms {
		if vm.Name != name {
			kept = append(kept, vm)
		}
	}
	f.vms = kept
}

func newTestResolver(f *fakeFleet, decide Decider) (*Resolver, *[]string) {
	var removed []string
	r := NewResolver(f, func(_ context.Context, name string) error {
		removed = append(removed, name)
		f.remove(name)
		return nil
	}, decide)
	return r, &removed
}

func TestTargetCandidates(t *testing.T) {
	m := meta.Metadata{
		Name: "web02",
		Disk: "/dev/vg0/web02",
		MAC:  "52:54:00:11:22:33",
		// UUID cleared, as for a clone
	}

	got := TargetCandidates(m)
	want := []Candidate{
		{Attribute: "name", Value: "web02"},
		{Attribute: "disk", Value: "/dev/vg0/web02"},
		{Attribute: "mac", Value: "52:54:00:11:22:33"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestResolveOverwriteRemovesConflicts(t *testing.T) {
	fleet := &fakeFleet{vms: []inventory.VM{
		{Name: "vm1", MAC: "52:54:00:01:02:03"},
		{Name: "vm2", MAC: "52:54:00:0a:0b:0c"},
	}}
	r, removed := newTestResolver(fleet, AutoRemove)

	err := r.Resolve(context.Background(), []Candidate{{Attribute: "name", Value: "vm1"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(*removed) != 1 || (*removed)[0] != "vm1" {
		t.Errorf("removed = %v, want [vm1]", *removed)
	}
	if len(fleet.Search("name", "vm1")) != 0 {
		t.Error("vm1 still present in fleet after resolve")
	}
	if len(fleet.Search("name", "vm2")) != 1 {
		t.Error("vm2 should be untouched")
	}
}

func TestResolveNoConflicts(t *testing.T) {
	fleet := &fakeFleet{vms: []inventory.VM{{Name: "vm1"}}}
	r, removed := newTestResolver(fleet, AutoFail)

	err := r.Resolve(context.Background(), []Candidate{{Attribute: "name", Value: "ghost"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(*removed) != 0 {
		t.Errorf("removed = %v, want none", *removed)
	}
}

func TestResolveHeadlessFails(t *testing.T) {
	fleet := &fakeFleet{vms: []inventory.VM{{Name: "vm1"}}}
	r, removed := newTestResolver(fleet, AutoFail)

	err := r.Resolve(context.Background(), []Candidate{{Attribute: "name", Value: "vm1"}})
	if !errdefs.IsKind(err, errdefs.KindConflict) {
		t.Fatalf("Resolve() error = %v, want conflict kind", err)
	}
	if len(*removed) != 0 {
		t.Errorf("removed = %v, want none", *removed)
	}
}

func TestResolvePromptDecisions(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     error
		wantRemoved []string
	}{
		{"remove on yes", "y\n", nil, []string{"vm1"}},
		{"skip leaves VM alone", "skip\n", nil, nil},
		{"cancel aborts cleanly", "cancel\n", errdefs.ErrCanceled, nil},
		{"closed input cancels", "", errdefs.ErrCanceled, nil},
		{"unrecognized input re-asks", "wat\n\ny\n", nil, []string{"vm1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fleet := &fakeFleet{vms: []inventory.VM{{Name: "vm1"}}}
			var out strings.Builder
			r, removed := newTestResolver(fleet, Prompt(strings.NewReader(tt.input), &out))

			err := r.Resolve(context.Background(), []Candidate{{Attribute: "name", Value: "vm1"}})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
			}

			if len(*removed) != len(tt.wantRemoved) {
				t.Fatalf("removed = %v, want %v", *removed, tt.wantRemoved)
			}
			for i := range tt.wantRemoved {
				if (*removed)[i] != tt.wantRemoved[i] {
					t.Errorf("removed = %v, want %v", *removed, tt.wantRemoved)
				}
			}
			if !strings.Contains(out.String(), "conflicting attribute") {
				t.Errorf("prompt output missing conflict description: %q", out.String())
			}
		})
	}
}

func TestResolveCancelKeepsEarlierRemovals(t *testing.T) {
	fleet := &fakeFleet{vms: []inventory.VM{
		{Name: "vm1"},
		{Name: "vm2", MAC: "52:54:00:01:02:03"},
	}}
	var out strings.Builder
	// Remove the first collision, cancel on the second.
	r, removed := newTestResolver(fleet, Prompt(strings.NewReader("y\ncancel\n"), &out))

	err := r.Resolve(context.Background(), []Candidate{
		{Attribute: "name", Value: "vm1"},
		{Attribute: "mac", Value: "52:54:00:01:02:03"},
	})
	if !errors.Is(err, errdefs.ErrCanceled) {
		t.Fatalf("Resolve() error = %v, want ErrCanceled", err)
	}
	if len(*removed) != 1 || (*removed)[0] != "vm1" {
		t.Errorf("removed = %v, want [vm1] kept removed", *removed)
	}
}
