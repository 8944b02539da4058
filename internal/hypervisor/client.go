// Package hypervisor wraps the libvirt control plane. It exposes only the
// operations the orchestration engine needs: enumerating the fleet, dumping
// and defining domain XML, and the suspend/resume/start/undefine lifecycle
// calls. Virtualization mechanics stay on the other side of this boundary.
package hypervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/digitalocean/go-libvirt"
	"github.com/digitalocean/go-libvirt/socket/dialers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client wraps a go-libvirt connection.
type Client struct {
	libvirt *libvirt.Libvirt
	log     zerolog.Logger
}

// Connect establishes a connection to the local libvirt daemon.
// It returns a Client that must be closed via Close() when done.
//
// If socketPath is empty, defaults to "/var/run/libvirt/libvirt-sock"
// (qemu:///system). If timeout is zero, defaults to 5 seconds.
func Connect(socketPath string, timeout time.Duration) (*Client, error) {
	if socketPath == "" {
		socketPath = "/var/run/libvirt/libvirt-sock"
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	dialer := dialers.NewLocal(
		dialers.WithSocket(socketPath),
		dialers.WithLocalTimeout(timeout),
	)

	l := libvirt.NewWithDialer(dialer)
	if err := l.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to libvirt at %s: %w", socketPath, err)
	}

	return &Client{
		libvirt: l,
		log:     log.With().Str("component", "hypervisor").Logger(),
	}, nil
}

// ConnectWithContext establishes a connection with context support for
// cancellation.
func ConnectWithContext(ctx context.Context, socketPath string, timeout time.Duration) (*Client, error) {
	type result struct {
		client *Client
		err    error
	}
	resultCh := make(chan result, 1)

	go func() {
		c, err := Connect(socketPath, timeout)
		resultCh <- result{client: c, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("connection cancelled: %w", ctx.Err())
	case res := <-resultCh:
		return res.client, res.err
	}
}

// Close closes the libvirt connection and releases resources.
// It is safe to call Close multiple times.
func (c *Client) Close() error {
	if c.libvirt == nil {
		return nil
	}
	if err := c.libvirt.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect from libvirt: %w", err)
	}
	return nil
}
