package hal

import (
	"context"
	"net/netip"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// BlockReason explains why a target was refused by the SSRF guard.
type BlockReason string

// Block reasons.
const (
	BlockInvalidURL     BlockReason = "invalid_url"
	BlockUnresolvable   BlockReason = "unresolvable"
	BlockPrivateNetwork BlockReason = "private_network"
	BlockNotAllowlisted BlockReason = "not_allowlisted"
	BlockRedirect       BlockReason = "blocked_redirect"
)

// TargetValidator decides whether a URL may be fetched.
type TargetValidator interface {
	// Validate returns nil when the URL may be fetched, or an EBLOCKED error
	// whose reason says why not. Hostname resolution is the only I/O.
	Validate(ctx context.Context, rawURL string) error
}

// metadataAddrs are well-known cloud instance metadata endpoints.
var metadataAddrs = []netip.Addr{
	netip.MustParseAddr("169.254.169.254"),
	netip.MustParseAddr("fd00:ec2::254"),
	netip.MustParseAddr("100.100.100.200"),
}

var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
}

// IsBlockedAddr reports whether addr belongs to a loopback, private,
// link-local, multicast, reserved or cloud metadata range.
func IsBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() {
		return true
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() || addr.IsMulticast() {
		return true
	}
	for _, m := range metadataAddrs {
		if addr == m {
			return true
		}
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Allowlist restricts fetching to a set of domains and their subdomains.
// An empty Allowlist allows every host.
type Allowlist []string

// NewAllowlist normalizes entries: blanks are dropped, entries are
// lowercased and stripped of leading dots, and entries that are bare public
// suffixes (such as "com" or "co.uk") are rejected because they would admit
// every registrable domain beneath them.
func NewAllowlist(entries []string) (Allowlist, error) {
	var list Allowlist
	for _, entry := range entries {
		entry = strings.Trim(strings.ToLower(strings.TrimSpace(entry)), ".")
		if entry == "" {
			continue
		}
		if suffix, _ := publicsuffix.PublicSuffix(entry); suffix == entry {
			return nil, Errorf(EINVALID, "allowlist entry %q is a public suffix", entry)
		}
		list = append(list, entry)
	}
	return list, nil
}

// ParseAllowlist splits a comma-separated list and normalizes it.
func ParseAllowlist(s string) (Allowlist, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return NewAllowlist(strings.Split(s, ","))
}

// Allows reports whether host equals an entry or is a subdomain of one.
func (a Allowlist) Allows(host string) bool {
	if len(a) == 0 {
		return true
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, d := range a {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
