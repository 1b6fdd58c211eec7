package http_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/fwojciec/hal"
	halhttp "github.com/fwojciec/hal/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver answers lookups from a fixed table.
type stubResolver map[string][]string

func (r stubResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	ips, ok := r[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	var addrs []net.IPAddr
	for _, ip := range ips {
		addrs = append(addrs, net.IPAddr{IP: net.ParseIP(ip)})
	}
	return addrs, nil
}

func newValidator(t *testing.T, allowlist string) *halhttp.Validator {
	t.Helper()

	list, err := hal.ParseAllowlist(allowlist)
	require.NoError(t, err)

	v := halhttp.NewValidator(list)
	v.Resolver = stubResolver{
		"example.com":      {"93.184.216.34"},
		"docs.example.com": {"93.184.216.35"},
		"internal.corp":    {"10.0.0.5"},
		"mixed.example":    {"93.184.216.34", "127.0.0.1"},
		"metadata.example": {"169.254.169.254"},
		"mapped.example":   {"::ffff:192.168.0.1"},
		"empty.example":    {},
	}
	return v
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		url    string
		reason hal.BlockReason
	}{
		{name: "public host", url: "https://example.com/page"},
		{name: "public literal ip", url: "http://93.184.216.34/"},
		{name: "ftp scheme", url: "ftp://example.com/", reason: hal.BlockInvalidURL},
		{name: "no host", url: "https:///path", reason: hal.BlockInvalidURL},
		{name: "unparseable", url: "http://[::1", reason: hal.BlockInvalidURL},
		{name: "unknown host", url: "https://nope.invalid/", reason: hal.BlockUnresolvable},
		{name: "no addresses", url: "https://empty.example/", reason: hal.BlockUnresolvable},
		{name: "private address", url: "http://internal.corp/", reason: hal.BlockPrivateNetwork},
		{name: "any private address blocks", url: "http://mixed.example/", reason: hal.BlockPrivateNetwork},
		{name: "metadata address", url: "http://metadata.example/latest", reason: hal.BlockPrivateNetwork},
		{name: "ipv4 mapped private", url: "http://mapped.example/", reason: hal.BlockPrivateNetwork},
		{name: "loopback literal", url: "http://127.0.0.1:8080/", reason: hal.BlockPrivateNetwork},
		{name: "ipv6 loopback literal", url: "http://[::1]/", reason: hal.BlockPrivateNetwork},
		{name: "metadata literal", url: "http://169.254.169.254/latest/meta-data", reason: hal.BlockPrivateNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := newValidator(t, "").Validate(context.Background(), tt.url)
			if tt.reason == "" {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, hal.EBLOCKED, hal.ErrorCode(err))
			assert.Equal(t, tt.reason, hal.ErrorReason(err))
		})
	}
}

func TestValidator_Allowlist(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "example.com")

	t.Run("allows listed domain and subdomains", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, v.Validate(context.Background(), "https://example.com/"))
		require.NoError(t, v.Validate(context.Background(), "https://docs.example.com/"))
	})

	t.Run("refuses other domains before resolving", func(t *testing.T) {
		t.Parallel()

		err := v.Validate(context.Background(), "https://nope.invalid/")
		assert.Equal(t, hal.BlockNotAllowlisted, hal.ErrorReason(err))
	})

	t.Run("allowlist cannot admit private addresses", func(t *testing.T) {
		t.Parallel()

		v := newValidator(t, "internal.corp")
		err := v.Validate(context.Background(), "http://internal.corp/")
		assert.Equal(t, hal.BlockPrivateNetwork, hal.ErrorReason(err))
	})
}
