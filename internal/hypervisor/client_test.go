package hypervisor

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestConnectMissingSocket(t *testing.T) {
	_, err := Connect(filepath.Join(t.TempDir(), "libvirt-sock"), 100*time.Millisecond)
	if err == nil {
		t.Fatal("Connect() error = nil, want error for missing socket")
	}
}

func TestConnectWithContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConnectWithContext(ctx, filepath.Join(t.TempDir(), "libvirt-sock"), 100*time.Millisecond)
	if err == nil {
		t.Fatal("ConnectWithContext() error = nil, want error")
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v, want nil", err)
	}
}
