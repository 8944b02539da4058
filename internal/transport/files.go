package transport

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/sftp"
)

// Control artifacts (metadata records, definition documents) move as
// whole files over SFTP; only disk images stream through Start.

func (e *Endpoint) sftpClient() (*sftp.Client, error) {
	client, err := sftp.NewClient(e.client)
	if err != nil {
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}
	return client, nil
}

// WriteFile writes data to path on the remote host.
func (e *Endpoint) WriteFile(path string, data []byte, mode os.FileMode) error {
	client, err := e.sftpClient()
	if err != nil {
		return err
	}
	defer client.Close()

	f, err := client.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create remote file %q: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write remote file %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close remote file %q: %w", path, err)
	}
	if err := client.Chmod(path, mode); err != nil {
		return fmt.Errorf("failed to chmod remote file %q: %w", path, err)
	}
	return nil
}

// ReadFile reads the whole remote file at path.
func (e *Endpoint) ReadFile(path string) ([]byte, error) {
	client, err := e.sftpClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	f, err := client.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote file %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote file %q: %w", path, err)
	}
	return data, nil
}

// MkdirAll creates the remote directory and any missing parents.
func (e *Endpoint) MkdirAll(path string) error {
	client, err := e.sftpClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.MkdirAll(path); err != nil {
		return fmt.Errorf("failed to create remote directory %q: %w", path, err)
	}
	return nil
}

// FileExists reports whether a regular file exists at the remote path.
func (e *Endpoint) FileExists(path string) bool {
	client, err := e.sftpClient()
	if err != nil {
		return false
	}
	defer client.Close()

	info, err := client.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
