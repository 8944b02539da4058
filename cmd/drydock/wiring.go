package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kwandrews/drydock/internal/backupdir"
	"github.com/kwandrews/drydock/internal/config"
	"github.com/kwandrews/drydock/internal/conflict"
	"github.com/kwandrews/drydock/internal/engine"
	"github.com/kwandrews/drydock/internal/hypervisor"
	"github.com/kwandrews/drydock/internal/inventory"
	"github.com/kwandrews/drydock/internal/meta"
	"github.com/kwandrews/drydock/internal/runlog"
	"github.com/kwandrews/drydock/internal/runner"
	"github.com/kwandrews/drydock/internal/transfer"
	"github.com/kwandrews/drydock/internal/transport"
	"github.com/kwandrews/drydock/internal/volume"
)

const connectTimeout = 30 * time.Second

// toolkit bundles the wired collaborators for one operation.
type toolkit struct {
	client  *hypervisor.Client
	inv     *inventory.Provider
	runner  *runner.Runner
	volumes *volume.Manager
	mover   *transfer.Service
	engine  *engine.Engine
}

// newToolkit connects to the hypervisor and wires the engine. The
// returned closer releases the libvirt connection.
func newToolkit(ctx context.Context, g config.Global, run *runlog.Run, overwrite bool) (*toolkit, func(), error) {
	client, err := hypervisor.ConnectWithContext(ctx, g.LibvirtSocket, connectTimeout)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if cerr := client.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("could not close libvirt connection")
		}
	}

	r := runner.New(run)
	inv := inventory.New(r, client)
	volumes := volume.NewManager(r, inv)
	mover := transfer.NewService(r, g.BlockSize)

	remove := func(ctx context.Context, name string) error {
		vm, err := inv.VM(name)
		if err != nil {
			return err
		}
		if err := client.Undefine(ctx, name); err != nil {
			return err
		}
		if vm.Disk != "" {
			if err := volumes.Remove(ctx, vm.Disk); err != nil {
				return err
			}
		}
		return inv.Refresh(ctx)
	}

	var decide conflict.Decider
	switch {
	case overwrite:
		decide = conflict.AutoRemove
	case g.Headless:
		decide = conflict.AutoFail
	default:
		decide = conflict.Prompt(os.Stdin, os.Stdout)
	}

	eng := engine.New(engine.Deps{
		Domains:   client,
		Fleet:     inv,
		Volumes:   volumes,
		Mover:     mover,
		Verifier:  meta.Verifier{Inventory: inv, Runner: r},
		Conflicts: conflict.NewResolver(inv, remove, decide),
		Recorder:  run,
	})
	if g.OutputLevel == 0 {
		eng.SetOutput(io.Discard)
	}

	return &toolkit{
		client:  client,
		inv:     inv,
		runner:  r,
		volumes: volumes,
		mover:   mover,
		engine:  eng,
	}, closer, nil
}

// dialRemote opens the SSH endpoint for --remote operations. spec is
// "host" or "user@host".
func dialRemote(ctx context.Context, spec, identityFile string) (*transport.Endpoint, transport.Config, error) {
	cfg, err := transport.ParseSpec(spec, identityFile)
	if err != nil {
		return nil, transport.Config{}, err
	}
	ep, err := transport.Dial(ctx, cfg)
	if err != nil {
		return nil, transport.Config{}, err
	}
	return ep, cfg, nil
}

// openStore picks the backup directory implementation: remote over
// sftp when an endpoint is given, plain filesystem otherwise.
func openStore(ep *transport.Endpoint, cfg transport.Config, dir string) backupdir.Store {
	if ep != nil {
		return backupdir.NewRemote(ep, cfg.Address(), dir)
	}
	return backupdir.NewLocal(dir)
}
