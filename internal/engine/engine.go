// Package engine sequences backup, import, and clone operations across
// the hypervisor, the volume manager, and an optional remote transport.
// Destructive steps are bracketed with guaranteed cleanup so partial
// failures never leave dangling snapshots or half-registered guests.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kwandrews/drydock/internal/meta"
	"github.com/kwandrews/drydock/internal/runner"
)

// Deps carries the engine's collaborators. All fields are required
// except Recorder, which defaults to a no-op.
type Deps struct {
	Domains   domainController
	Fleet     fleetSource
	Volumes   volumeLifecycle
	Mover     imageMover
	Verifier  targetVerifier
	Conflicts conflictResolver
	Recorder  runner.Recorder
}

// TimeSource supplies operation timestamps; tests pin it.
type TimeSource func() time.Time

func orNow(ts TimeSource) TimeSource {
	if ts == nil {
		return time.Now
	}
	return ts
}

type nopRecorder struct{}

func (nopRecorder) Record(string, string) {}

// Engine runs one operation at a time. It is not safe for concurrent
// use; the process-level lock makes that moot anyway.
type Engine struct {
	domains   domainController
	fleet     fleetSource
	volumes   volumeLifecycle
	mover     imageMover
	verifier  targetVerifier
	conflicts conflictResolver
	rec       runner.Recorder

	phase Phase
	out   io.Writer
	log   zerolog.Logger

	// swappable for tests
	writeFile  func(path string, data []byte) error
	removeFile func(path string) error
}

// New returns an Engine wired to the given collaborators.
func New(deps Deps) *Engine {
	rec := deps.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Engine{
		domains:   deps.Domains,
		fleet:     deps.Fleet,
		volumes:   deps.Volumes,
		mover:     deps.Mover,
		verifier:  deps.Verifier,
		conflicts: deps.Conflicts,
		rec:       rec,
		phase:     PhaseIdle,
		out:       os.Stdout,
		log:       log.With().Str("component", "engine").Logger(),
		writeFile: func(path string, data []byte) error {
			return os.WriteFile(path, data, 0o644)
		},
		removeFile: os.Remove,
	}
}

// SetOutput redirects user-facing progress messages.
func (e *Engine) SetOutput(w io.Writer) { e.out = w }

// Phase reports how far the current operation has progressed.
func (e *Engine) Phase() Phase { return e.phase }

func (e *Engine) advance(p Phase) {
	e.log.Debug().Str("from", string(e.phase)).Str("to", string(p)).Msg("phase transition")
	e.phase = p
}

// fail moves the operation to Aborted and returns err unchanged.
// Compensating cleanup runs in the deferred blocks of the caller.
func (e *Engine) fail(err error) error {
	e.phase = PhaseAborted
	e.rec.Record("error", err.Error())
	return err
}

func (e *Engine) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format+"\n", args...)
}

// newMAC generates a fleet-unique MAC with a budget scaled to fleet size.
func (e *Engine) newMAC() (string, error) {
	return meta.GenerateUniqueMAC(e.fleet.MACInUse, e.fleet.Count())
}

// register is the shared tail of import and clone: define the target
// domain, optionally start it and mark autostart, then drop the
// temporary definition file.
func (e *Engine) register(ctx context.Context, target meta.Metadata, targetXML, tempPath string, start, autostart bool) error {
	if err := e.domains.Define(ctx, targetXML); err != nil {
		return e.fail(err)
	}
	e.advance(PhaseRegistered)
	e.rec.Record("success", "defined VM "+target.Name)

	if err := e.fleet.Refresh(ctx); err != nil {
		return e.fail(err)
	}

	if start {
		if err := e.domains.Start(ctx, target.Name); err != nil {
			return e.fail(err)
		}
	}
	if autostart {
		if err := e.domains.Autostart(ctx, target.Name); err != nil {
			return e.fail(err)
		}
	}

	if tempPath != "" {
		if err := e.removeFile(tempPath); err != nil {
			e.log.Warn().Err(err).Str("path", tempPath).Msg("could not remove temporary definition file")
		}
	}

	e.advance(PhaseFinalized)
	return nil
}

// guestConfigNote reminds the operator that the guest OS itself was not
// touched.
func (e *Engine) guestConfigNote() {
	e.printf("")
	e.printf("**Note: Guest OS may need additional configuration.")
	e.printf("Changing the hostname can be done by updating /etc/hostname and /etc/hosts inside the guest.")
}
