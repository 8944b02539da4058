package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
)

// Endpoint is an established SSH connection to a remote backup host.
type Endpoint struct {
	config Config
	client *ssh.Client
	log    zerolog.Logger
}

// Dial connects to the remote host described by cfg. The context bounds
// connection establishment only; established endpoints live until
// Close.
func Dial(ctx context.Context, cfg Config) (*Endpoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid remote config: %w", err)
	}

	clientConfig, err := cfg.buildClientConfig()
	if err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "transport").Str("remote", cfg.Address()).Logger()
	logger.Debug().Msg("establishing SSH connection")

	type dialResult struct {
		client *ssh.Client
		err    error
	}
	done := make(chan dialResult, 1)
	go func() {
		client, err := ssh.Dial("tcp", cfg.Address(), clientConfig)
		done <- dialResult{client, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("connection to %s canceled: %w", cfg.Address(), ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Address(), res.err)
		}
		logger.Info().Msg("SSH connection established")
		return &Endpoint{config: cfg, client: res.client, log: logger}, nil
	}
}

// Close tears down the SSH connection.
func (e *Endpoint) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	if err := e.client.Close(); err != nil {
		return fmt.Errorf("failed to close SSH connection: %w", err)
	}
	return nil
}

// Run executes argv on the remote host and returns combined output.
func (e *Endpoint) Run(_ context.Context, argv []string) (string, error) {
	cmd := QuoteCommand(argv)
	e.log.Debug().Str("command", cmd).Msg("executing remote command")

	session, err := e.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer session.Close()

	var out bytes.Buffer
	session.Stdout = &out
	session.Stderr = &out

	if err := session.Run(cmd); err != nil {
		return out.String(), fmt.Errorf("remote command %q failed: %w", cmd, err)
	}
	return out.String(), nil
}

// RunOK executes argv remotely and reports only whether it succeeded.
// Used for probes like `test -f` where a non-zero exit is an answer,
// not an error.
func (e *Endpoint) RunOK(ctx context.Context, argv []string) bool {
	_, err := e.Run(ctx, argv)
	return err == nil
}

// Start launches argv on the remote host as a streaming pipeline stage.
// When stdin is non-nil the remote command reads from it. The returned
// reader is the remote standard output; the caller drains it (when
// consuming it) and then calls wait exactly once, which reports the
// remote exit status and releases the session.
func (e *Endpoint) Start(argv []string, stdin io.Reader) (stdout io.Reader, wait func() error, err error) {
	cmd := QuoteCommand(argv)
	e.log.Debug().Str("command", cmd).Msg("starting remote pipeline stage")

	session, err := e.client.NewSession()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create SSH session: %w", err)
	}

	if stdin != nil {
		session.Stdin = stdin
	}
	stdout, err = session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		return nil, nil, fmt.Errorf("failed to open remote stdout: %w", err)
	}

	if err := session.Start(cmd); err != nil {
		_ = session.Close()
		return nil, nil, fmt.Errorf("failed to start remote command %q: %w", cmd, err)
	}

	wait = func() error {
		defer session.Close()
		if err := session.Wait(); err != nil {
			return fmt.Errorf("remote command %q failed: %w", cmd, err)
		}
		return nil
	}
	return stdout, wait, nil
}

// QuoteCommand renders argv as a single shell command line, each
// argument single-quoted so remote shells take it literally.
func QuoteCommand(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = quoteArg(arg)
	}
	return strings.Join(quoted, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n\"'\\$&|;<>()*?[]{}~#`!") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}
