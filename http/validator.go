package http

import (
	"context"
	"net"
	"net/netip"
	"net/url"

	"github.com/fwojciec/hal"
)

// Ensure Validator implements hal.TargetValidator at compile time.
var _ hal.TargetValidator = (*Validator)(nil)

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Validator refuses URLs that are malformed, outside the allowlist, or that
// resolve to a loopback, private, link-local or metadata address.
type Validator struct {
	Allowlist hal.Allowlist
	Resolver  Resolver
}

// NewValidator creates a Validator that resolves hosts with net.DefaultResolver.
func NewValidator(allowlist hal.Allowlist) *Validator {
	return &Validator{
		Allowlist: allowlist,
		Resolver:  net.DefaultResolver,
	}
}

// Validate returns nil when rawURL may be fetched.
func (v *Validator) Validate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return hal.Blocked(hal.BlockInvalidURL, "invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return hal.Blocked(hal.BlockInvalidURL, "scheme %q is not allowed", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return hal.Blocked(hal.BlockInvalidURL, "url has no host")
	}

	if !v.Allowlist.Allows(host) {
		return hal.Blocked(hal.BlockNotAllowlisted, "host %s is not in the allowlist", host)
	}

	addrs, err := v.resolve(ctx, host)
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		if hal.IsBlockedAddr(addr) {
			return hal.Blocked(hal.BlockPrivateNetwork, "host %s resolves to blocked address %s", host, addr)
		}
	}
	return nil
}

func (v *Validator) resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr}, nil
	}

	resolver := v.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	ips, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, hal.Blocked(hal.BlockUnresolvable, "cannot resolve %s: %v", host, err)
	}

	addrs := make([]netip.Addr, 0, len(ips))
	for _, ip := range ips {
		addr, ok := netip.AddrFromSlice(ip.IP)
		if !ok {
			continue
		}
		addrs = append(addrs, addr)
	}
	if len(addrs) == 0 {
		return nil, hal.Blocked(hal.BlockUnresolvable, "%s has no addresses", host)
	}
	return addrs, nil
}
