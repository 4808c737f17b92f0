package scan

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
)

// Target is a host as the user named it together with the address it resolved to.
// A Target is resolved once per scan and must not be modified afterwards.
type Target struct {
	Raw string
	IP  net.IP
}

func (t Target) String() string {
	if t.Raw == "" || t.Raw == t.IP.String() {
		return t.IP.String()
	}
	return fmt.Sprintf("%s (%s)", t.Raw, t.IP)
}

// LookupFunc resolves a host name to its addresses. net.DefaultResolver.LookupIPAddr satisfies it.
type LookupFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

// Resolver maps host names and literal addresses to a single IP address.
// The first answer for each host is cached, so repeated lookups within one
// process always pick the same address.
type Resolver struct {
	lookup LookupFunc
	mu     sync.Mutex
	cache  map[string]net.IP
}

func NewResolver(lookup LookupFunc) *Resolver {
	if lookup == nil {
		lookup = net.DefaultResolver.LookupIPAddr
	}
	return &Resolver{
		lookup: lookup,
		cache:  map[string]net.IP{},
	}
}

var defaultResolver = NewResolver(nil)

// Resolve resolves host with the process-wide default resolver.
func Resolve(ctx context.Context, host string) (Target, error) {
	return defaultResolver.Resolve(ctx, host)
}

func (r *Resolver) Resolve(ctx context.Context, host string) (Target, error) {

	host = strings.TrimSpace(host)
	if host == "" {
		return Target{}, &ResolutionError{Host: host, Err: ErrEmptyHost}
	}

	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return Target{Raw: host, IP: ip}, nil
	}

	r.mu.Lock()
	cached, ok := r.cache[host]
	r.mu.Unlock()
	if ok {
		return Target{Raw: host, IP: copyIP(cached)}, nil
	}

	addrs, err := r.lookup(ctx, host)
	if err != nil {
		return Target{}, &ResolutionError{Host: host, Err: err}
	}
	ip := pickAddress(addrs)
	if ip == nil {
		return Target{}, &ResolutionError{Host: host, Err: fmt.Errorf("no addresses found")}
	}

	r.mu.Lock()
	if existing, ok := r.cache[host]; ok {
		ip = existing
	} else {
		r.cache[host] = ip
	}
	r.mu.Unlock()

	return Target{Raw: host, IP: copyIP(ip)}, nil
}

// pickAddress prefers the first IPv4 answer and falls back to the first answer of any family.
func pickAddress(addrs []net.IPAddr) net.IP {
	var first net.IP
	for _, addr := range addrs {
		if addr.IP == nil {
			continue
		}
		if v4 := addr.IP.To4(); v4 != nil {
			return v4
		}
		if first == nil {
			first = addr.IP
		}
	}
	return first
}

func copyIP(ip net.IP) net.IP {
	tIP := make(net.IP, len(ip))
	copy(tIP, ip)
	return tIP
}
