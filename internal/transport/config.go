// Package transport provides the SSH endpoint used for remote backup
// and restore: command execution, streaming sessions for image
// pipelines, and SFTP copies for small control artifacts.
package transport

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Config holds everything needed to reach a remote backup host.
type Config struct {
	// Host is the remote hostname or IP address.
	Host string

	// Port is the SSH port (default 22).
	Port int

	// User is the SSH username.
	User string

	// IdentityFile is the path to the private key. Empty falls back to
	// the usual keys under ~/.ssh.
	IdentityFile string

	// KnownHostsPath is the known_hosts file used for host key checks.
	KnownHostsPath string

	// StrictHostKeyChecking rejects hosts missing from known_hosts.
	StrictHostKeyChecking bool

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults for the given
// user@host pair.
func DefaultConfig(user, host string) Config {
	return Config{
		Host:                  host,
		Port:                  22,
		User:                  user,
		KnownHostsPath:        filepath.Join(os.Getenv("HOME"), ".ssh", "known_hosts"),
		StrictHostKeyChecking: true,
		ConnectTimeout:        30 * time.Second,
	}
}

// ParseSpec splits a remote destination of the form [user@]host into a
// Config. A bare host logs in as the invoking account, the same way
// ssh itself would.
func ParseSpec(spec, identityFile string) (Config, error) {
	userName, host, found := strings.Cut(spec, "@")
	if !found {
		current, err := user.Current()
		if err != nil {
			return Config{}, fmt.Errorf("remote destination %q has no user part and the invoking user is unknown: %w", spec, err)
		}
		userName, host = current.Username, spec
	}
	if userName == "" || host == "" {
		return Config{}, fmt.Errorf("remote destination %q is not of the form [user@]host", spec)
	}

	cfg := DefaultConfig(userName, host)
	cfg.IdentityFile = identityFile
	return cfg, nil
}

// Validate checks the configuration before a dial is attempted.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.IdentityFile != "" {
		if _, err := os.Stat(c.IdentityFile); os.IsNotExist(err) {
			return fmt.Errorf("identity file not found: %s", c.IdentityFile)
		}
	}
	return nil
}

// Address returns the host:port dial target.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// buildClientConfig assembles the ssh.ClientConfig for a dial.
func (c Config) buildClientConfig() (*ssh.ClientConfig, error) {
	keyPath := c.IdentityFile
	if keyPath == "" {
		home := os.Getenv("HOME")
		for _, candidate := range []string{
			filepath.Join(home, ".ssh", "id_ed25519"),
			filepath.Join(home, ".ssh", "id_rsa"),
			filepath.Join(home, ".ssh", "id_ecdsa"),
		} {
			if _, err := os.Stat(candidate); err == nil {
				keyPath = candidate
				break
			}
		}
	}
	if keyPath == "" {
		return nil, fmt.Errorf("no identity file given and no default key found")
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	var hostKeyCallback ssh.HostKeyCallback
	if c.StrictHostKeyChecking && c.KnownHostsPath != "" {
		hostKeyCallback, err = knownhosts.New(c.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
	} else {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.ConnectTimeout,
	}, nil
}
