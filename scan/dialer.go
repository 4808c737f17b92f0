package scan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"golang.org/x/net/proxy"
)

// Dialer opens the TCP connections used by probes.
// *net.Dialer and the SOCKS5 dialers of golang.org/x/net/proxy satisfy it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

func directDialer() Dialer {
	// keep-alives are pointless for a connection that is closed straight away
	return &net.Dialer{KeepAlive: -1}
}

// NewProxyDialer returns a Dialer that tunnels probes through the proxy at rawURL,
// e.g. socks5://127.0.0.1:1080.
func NewProxyDialer(rawURL string) (Dialer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL '%s': %w", rawURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL '%s': missing host", rawURL)
	}
	d, err := proxy.FromURL(u, &net.Dialer{KeepAlive: -1})
	if err != nil {
		return nil, fmt.Errorf("unsupported proxy '%s': %w", rawURL, err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd, nil
	}
	return &contextDialer{d: d}, nil
}

// contextDialer adapts a proxy.Dialer without context support so that
// probes still honour their deadline.
type contextDialer struct {
	d proxy.Dialer
}

func (c *contextDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := c.d.Dial(network, address)
		ch <- dialResult{conn, err}
	}()

	select {
	case res := <-ch:
		return res.conn, res.err
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// classify maps the outcome of a connect attempt to a port state.
// The returned error is the cause to record for PortError, and nil otherwise.
func classify(err error) (PortState, error) {
	if err == nil {
		return PortOpen, nil
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return PortClosed, nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return PortTimeout, nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return PortTimeout, nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return PortError, &ResolutionError{Host: dnsErr.Name, Err: err}
	}

	// proxies report refusals as text rather than as an errno
	if strings.Contains(err.Error(), "refused") {
		return PortClosed, nil
	}

	return PortError, err
}
