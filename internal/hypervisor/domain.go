package hypervisor

import (
	"context"
	"fmt"
)

// DomainSummary is the control-plane view of one defined VM.
type DomainSummary struct {
	Name  string
	State string
}

// Domain states (from libvirt VIR_DOMAIN_* constants).
const (
	domainStateRunning = 1
	domainStateShutoff = 5
)

// StateRunning is the run-state value the engine caches before suspending.
const StateRunning = "running"

// ListDomains enumerates all defined domains, running and shut off alike.
func (c *Client) ListDomains(_ context.Context) ([]DomainSummary, error) {
	// NeedResults: 1 means populate the domains slice; flags 0 means all
	// domains, active and inactive.
	domains, _, err := c.libvirt.ConnectListAllDomains(1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}

	out := make([]DomainSummary, 0, len(domains))
	for _, d := range domains {
		state, _, err := c.libvirt.DomainGetState(d, 0)
		if err != nil {
			c.log.Warn().Str("domain", d.Name).Err(err).Msg("failed to get domain state")
			continue
		}
		out = append(out, DomainSummary{Name: d.Name, State: stateToString(state)})
	}
	return out, nil
}

// DomainXML returns the full definition document for a domain.
func (c *Client) DomainXML(_ context.Context, name string) (string, error) {
	dom, err := c.libvirt.DomainLookupByName(name)
	if err != nil {
		return "", fmt.Errorf("domain %q not found: %w", name, err)
	}
	xml, err := c.libvirt.DomainGetXMLDesc(dom, 0)
	if err != nil {
		return "", fmt.Errorf("failed to dump XML for domain %q: %w", name, err)
	}
	return xml, nil
}

// Suspend pauses a running domain. Idempotent from the engine's point of
// view: suspending an already-paused domain is not treated as fatal by
// callers, matching virsh behavior.
func (c *Client) Suspend(_ context.Context, name string) error {
	dom, err := c.libvirt.DomainLookupByName(name)
	if err != nil {
		return fmt.Errorf("domain %q not found: %w", name, err)
	}
	if err := c.libvirt.DomainSuspend(dom); err != nil {
		return fmt.Errorf("failed to suspend domain %q: %w", name, err)
	}
	c.log.Info().Str("domain", name).Msg("suspended domain")
	return nil
}

// Resume unpauses a suspended domain.
func (c *Client) Resume(_ context.Context, name string) error {
	dom, err := c.libvirt.DomainLookupByName(name)
	if err != nil {
		return fmt.Errorf("domain %q not found: %w", name, err)
	}
	if err := c.libvirt.DomainResume(dom); err != nil {
		return fmt.Errorf("failed to resume domain %q: %w", name, err)
	}
	c.log.Info().Str("domain", name).Msg("resumed domain")
	return nil
}

// Start boots a defined, shut-off domain.
func (c *Client) Start(_ context.Context, name string) error {
	dom, err := c.libvirt.DomainLookupByName(name)
	if err != nil {
		return fmt.Errorf("domain %q not found: %w", name, err)
	}
	if err := c.libvirt.DomainCreate(dom); err != nil {
		return fmt.Errorf("failed to start domain %q: %w", name, err)
	}
	c.log.Info().Str("domain", name).Msg("started domain")
	return nil
}

// Autostart marks a domain to start when the host boots.
func (c *Client) Autostart(_ context.Context, name string) error {
	dom, err := c.libvirt.DomainLookupByName(name)
	if err != nil {
		return fmt.Errorf("domain %q not found: %w", name, err)
	}
	if err := c.libvirt.DomainSetAutostart(dom, 1); err != nil {
		return fmt.Errorf("failed to set autostart for domain %q: %w", name, err)
	}
	c.log.Info().Str("domain", name).Msg("enabled autostart")
	return nil
}

// Define registers a definition document with the hypervisor. The hypervisor
// assigns a fresh unique identifier when the document carries none.
func (c *Client) Define(_ context.Context, xml string) error {
	dom, err := c.libvirt.DomainDefineXML(xml)
	if err != nil {
		return fmt.Errorf("failed to define domain: %w", err)
	}
	c.log.Info().Str("domain", dom.Name).Msg("defined domain")
	return nil
}

// Undefine removes a domain definition, force-stopping it first if it is
// running. Destroy failure on a stopped domain is expected and ignored.
func (c *Client) Undefine(_ context.Context, name string) error {
	dom, err := c.libvirt.DomainLookupByName(name)
	if err != nil {
		return fmt.Errorf("domain %q not found: %w", name, err)
	}

	if err := c.libvirt.DomainDestroy(dom); err != nil {
		c.log.Debug().Str("domain", name).Err(err).Msg("domain was not running")
	}

	if err := c.libvirt.DomainUndefine(dom); err != nil {
		return fmt.Errorf("failed to undefine domain %q: %w", name, err)
	}
	c.log.Info().Str("domain", name).Msg("undefined domain")
	return nil
}

// stateToString converts a libvirt domain state to the vocabulary the
// engine and inventory use.
func stateToString(state int32) string {
	switch state {
	case 0:
		return "no state"
	case domainStateRunning:
		return StateRunning
	case 2:
		return "blocked"
	case 3:
		return "paused"
	case 4:
		return "shutdown"
	case domainStateShutoff:
		return "shutoff"
	case 6:
		return "crashed"
	case 7:
		return "pmsuspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}
