package hal_test

import (
	"net/netip"
	"testing"

	"github.com/fwojciec/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBlockedAddr(t *testing.T) {
	t.Parallel()

	blocked := []string{
		"127.0.0.1",
		"10.1.2.3",
		"172.16.0.1",
		"192.168.1.10",
		"169.254.169.254",
		"169.254.10.1",
		"100.64.0.1",
		"0.0.0.0",
		"224.0.0.1",
		"::1",
		"::",
		"fe80::1",
		"fc00::1",
		"fd00:ec2::254",
		"ff02::1",
		"::ffff:127.0.0.1",
		"::ffff:10.0.0.1",
	}
	for _, s := range blocked {
		t.Run("blocks "+s, func(t *testing.T) {
			t.Parallel()

			assert.True(t, hal.IsBlockedAddr(netip.MustParseAddr(s)))
		})
	}

	allowed := []string{
		"93.184.216.34",
		"8.8.8.8",
		"2606:2800:220:1:248:1893:25c8:1946",
		"::ffff:93.184.216.34",
	}
	for _, s := range allowed {
		t.Run("allows "+s, func(t *testing.T) {
			t.Parallel()

			assert.False(t, hal.IsBlockedAddr(netip.MustParseAddr(s)))
		})
	}

	t.Run("blocks zero value", func(t *testing.T) {
		t.Parallel()

		assert.True(t, hal.IsBlockedAddr(netip.Addr{}))
	})
}

func TestAllowlist_Allows(t *testing.T) {
	t.Parallel()

	list, err := hal.ParseAllowlist("example.com, .Docs.Example.org ,")
	require.NoError(t, err)

	assert.True(t, list.Allows("example.com"))
	assert.True(t, list.Allows("www.example.com"))
	assert.True(t, list.Allows("EXAMPLE.COM."))
	assert.True(t, list.Allows("api.docs.example.org"))
	assert.False(t, list.Allows("badexample.com"))
	assert.False(t, list.Allows("example.com.evil.net"))
	assert.False(t, list.Allows("example.org"))
}

func TestAllowlist_EmptyAllowsEverything(t *testing.T) {
	t.Parallel()

	list, err := hal.ParseAllowlist("  ")
	require.NoError(t, err)

	assert.Empty(t, list)
	assert.True(t, list.Allows("anything.example"))
}

func TestNewAllowlist_RejectsPublicSuffix(t *testing.T) {
	t.Parallel()

	_, err := hal.NewAllowlist([]string{"example.com", "co.uk"})

	assert.Equal(t, hal.EINVALID, hal.ErrorCode(err))
}
