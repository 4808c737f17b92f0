package scan

import (
	"context"
	"time"
)

// Scanner probes a range of ports on a resolved target.
type Scanner interface {
	Scan(ctx context.Context, target Target, ports PortRange) (*Report, error)
}

var _ Scanner = (*ConnectScanner)(nil)

// Scan runs a connect scan with the given per-probe timeout and concurrency.
func Scan(ctx context.Context, target Target, ports PortRange, timeout time.Duration, concurrency int) (*Report, error) {
	return NewConnectScanner(timeout, concurrency).Scan(ctx, target, ports)
}
