package scan

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLiteralAddresses(t *testing.T) {
	r := NewResolver(func(ctx context.Context, host string) ([]net.IPAddr, error) {
		t.Fatalf("unexpected lookup of %s", host)
		return nil, nil
	})

	target, err := r.Resolve(context.Background(), "192.168.1.1")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", target.IP.String())
	assert.Equal(t, "192.168.1.1", target.Raw)

	target, err = r.Resolve(context.Background(), "[::1]")
	require.NoError(t, err)
	assert.True(t, target.IP.Equal(net.IPv6loopback))
}

func TestResolvePrefersIPv4(t *testing.T) {
	r := NewResolver(func(ctx context.Context, host string) ([]net.IPAddr, error) {
		return []net.IPAddr{
			{IP: net.ParseIP("2001:db8::1")},
			{IP: net.ParseIP("10.0.0.2")},
			{IP: net.ParseIP("10.0.0.3")},
		}, nil
	})

	target, err := r.Resolve(context.Background(), "example.test")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", target.IP.String())
	assert.Equal(t, "example.test (10.0.0.2)", target.String())
}

func TestResolveIsDeterministic(t *testing.T) {
	answers := [][]net.IPAddr{
		{{IP: net.ParseIP("10.0.0.1")}, {IP: net.ParseIP("10.0.0.2")}},
		{{IP: net.ParseIP("10.0.0.2")}, {IP: net.ParseIP("10.0.0.1")}},
	}
	calls := 0
	r := NewResolver(func(ctx context.Context, host string) ([]net.IPAddr, error) {
		a := answers[calls%len(answers)]
		calls++
		return a, nil
	})

	first, err := r.Resolve(context.Background(), "round-robin.test")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(context.Background(), "round-robin.test")
		require.NoError(t, err)
		assert.Equal(t, first.IP.String(), again.IP.String())
	}
	assert.Equal(t, 1, calls)
}

func TestResolveFailures(t *testing.T) {
	lookupErr := errors.New("no such host")
	r := NewResolver(func(ctx context.Context, host string) ([]net.IPAddr, error) {
		if host == "empty.test" {
			return nil, nil
		}
		return nil, lookupErr
	})

	_, err := r.Resolve(context.Background(), "missing.test")
	require.Error(t, err)
	assert.True(t, IsResolutionError(err))
	assert.True(t, errors.Is(err, lookupErr))

	_, err = r.Resolve(context.Background(), "empty.test")
	require.Error(t, err)
	assert.True(t, IsResolutionError(err))

	_, err = r.Resolve(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyHost))
}

func TestResolveInvalidDomain(t *testing.T) {
	_, err := Resolve(context.Background(), "this-host-does-not-exist.invalid")
	require.Error(t, err)

	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "this-host-does-not-exist.invalid", re.Host)
}
