// Package conflict finds and resolves fleet identity collisions before
// an import or clone makes any destructive move. A collision is a
// defined VM already holding an attribute the target wants: its name,
// storage path, unique identifier or MAC address.
package conflict

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/kwandrews/drydock/internal/errdefs"
	"github.com/kwandrews/drydock/internal/inventory"
	"github.com/kwandrews/drydock/internal/meta"
)

// Candidate is one (attribute, value) pair checked against the fleet.
type Candidate struct {
	Attribute string
	Value     string
}

// Decision is the outcome of asking what to do about one collision.
type Decision int

const (
	// DecisionRemove removes the colliding VM and its storage.
	DecisionRemove Decision = iota
	// DecisionCancel aborts the whole operation cleanly.
	DecisionCancel
	// DecisionSkip leaves the collision alone and moves to the next
	// candidate.
	DecisionSkip
)

// Decider answers what to do about a VM colliding with a candidate.
// Implementations own any user interaction, including re-asking on
// unrecognized input, so the resolver itself stays terminal-free.
type Decider func(vmName string, c Candidate) (Decision, error)

// fleet is the slice of the inventory the resolver searches.
type fleet interface {
	Search(attribute, value string) []inventory.VM
}

// Resolver scans candidates against the fleet and applies decisions.
type Resolver struct {
	Fleet fleet
	// Remove undefines a VM and deletes its storage, then refreshes
	// the fleet view.
	Remove func(ctx context.Context, name string) error
	Decide Decider

	log zerolog.Logger
}

// NewResolver wires a resolver with a component logger.
func NewResolver(f fleet, remove func(ctx context.Context, name string) error, decide Decider) *Resolver {
	return &Resolver{
		Fleet:  f,
		Remove: remove,
		Decide: decide,
		log:    log.With().Str("component", "conflict").Logger(),
	}
}

// TargetCandidates builds the standard candidate set for a target
// metadata record. Empty values are not candidates; a cleared unique
// identifier collides with nothing.
func TargetCandidates(m meta.Metadata) []Candidate {
	all := []Candidate{
		{Attribute: "name", Value: m.Name},
		{Attribute: "disk", Value: m.Disk},
		{Attribute: "uuid", Value: m.UUID},
		{Attribute: "mac", Value: m.MAC},
	}
	return lo.Filter(all, func(c Candidate, _ int) bool {
		return c.Value != ""
	})
}

// Resolve works through candidates in order. Each candidate is held
// until every VM matching it is removed or skipped; only then does the
// next candidate get looked at. Cancel aborts the whole run with
// errdefs.ErrCanceled, leaving earlier removals in place.
func (r *Resolver) Resolve(ctx context.Context, candidates []Candidate) error {
	for _, c := range candidates {
		if err := r.resolveCandidate(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveCandidate(ctx context.Context, c Candidate) error {
	skipped := map[string]bool{}

	// Removal changes the fleet, so re-search after every mutation
	// until the candidate comes back clean.
	for {
		matches := r.Fleet.Search(c.Attribute, c.Value)
		matches = lo.Filter(matches, func(vm inventory.VM, _ int) bool {
			return !skipped[vm.Name]
		})
		if len(matches) == 0 {
			return nil
		}

		vm := matches[0]
		r.log.Info().Str("vm", vm.Name).Str("attribute", c.Attribute).Str("value", c.Value).
			Msg("conflicting VM found")

		decision, err := r.Decide(vm.Name, c)
		if err != nil {
			return err
		}

		switch decision {
		case DecisionRemove:
			if err := r.Remove(ctx, vm.Name); err != nil {
				return errdefs.Wrapf(errdefs.KindConflict, "conflict", err,
					"could not remove conflicting VM %q", vm.Name)
			}
		case DecisionCancel:
			r.log.Info().Msg("exiting with conflicts unresolved")
			return errdefs.ErrCanceled
		case DecisionSkip:
			skipped[vm.Name] = true
		}
	}
}
