package scan

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

const DefaultConcurrency = 100

type ConnectScanner struct {
	timeout     time.Duration
	maxRoutines int
	dialer      Dialer
	onResult    func(ProbeResult)
}

type Option func(*ConnectScanner)

// WithDialer replaces the direct TCP dialer, e.g. with a proxy dialer.
func WithDialer(d Dialer) Option {
	return func(s *ConnectScanner) {
		if d != nil {
			s.dialer = d
		}
	}
}

// WithProgress registers fn to be called once for every finished probe.
// fn is called from worker goroutines and must be safe for concurrent use.
func WithProgress(fn func(ProbeResult)) Option {
	return func(s *ConnectScanner) {
		s.onResult = fn
	}
}

func NewConnectScanner(timeout time.Duration, parallelism int, opts ...Option) *ConnectScanner {
	s := &ConnectScanner{
		timeout:     timeout,
		maxRoutines: parallelism,
		dialer:      directDialer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// portSlot holds the outcome for one port of the range. Each slot is written
// by a single worker and read only after all workers have finished.
type portSlot struct {
	result ProbeResult
	done   bool
}

func (s *ConnectScanner) Scan(ctx context.Context, target Target, ports PortRange) (*Report, error) {

	if target.IP == nil {
		return nil, ErrNoTarget
	}
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if s.timeout <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeout, s.timeout)
	}

	total := ports.Count()
	routines := s.maxRoutines
	if routines <= 0 {
		routines = DefaultConcurrency
	}
	if routines > total {
		routines = total
	}

	slots := make([]portSlot, total)
	wg := &sync.WaitGroup{}

	pool, err := ants.NewPoolWithFunc(routines, func(i interface{}) {
		defer wg.Done()
		index := i.(int)

		select {
		case <-ctx.Done():
			return
		default:
		}

		result, ok := s.scanPort(ctx, target.IP, ports.Port(index))
		if !ok {
			return
		}
		slots[index] = portSlot{result: result, done: true}

		if s.onResult != nil {
			s.onResult(result)
		}
	})
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	report := &Report{
		Target:  target,
		Range:   ports,
		Started: time.Now(),
	}

	log.WithFields(log.Fields{
		"target":  target.IP.String(),
		"ports":   ports.String(),
		"workers": routines,
		"timeout": s.timeout,
	}).Debug("Starting connect scan")

	dispatched := 0
dispatch:
	for index := 0; index < total; index++ {
		select {
		case <-ctx.Done():
			break dispatch
		default:
		}

		wg.Add(1)
		if err := pool.Invoke(index); err != nil {
			wg.Done()
			log.Debugf("Could not dispatch port %d: %s", ports.Port(index), err)
			break dispatch
		}
		dispatched++
	}

	wg.Wait()
	report.Finished = time.Now()

	report.Results = make([]ProbeResult, 0, total)
	for _, slot := range slots {
		if slot.done {
			report.Results = append(report.Results, slot.result)
		}
	}

	if len(report.Results) < total {
		report.Partial = true
		log.Debugf("Scan stopped after dispatching %d of %d ports", dispatched, total)
		if ctx.Err() != nil {
			return report, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		return report, fmt.Errorf("%w: %d of %d ports probed", ErrCancelled, len(report.Results), total)
	}

	return report, nil
}

// scanPort probes a single port. ok is false when the probe was cut short by
// cancellation of ctx, in which case its outcome says nothing about the port.
func (s *ConnectScanner) scanPort(ctx context.Context, target net.IP, port uint16) (result ProbeResult, ok bool) {

	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	conn, err := s.dialer.DialContext(probeCtx, "tcp", net.JoinHostPort(target.String(), strconv.Itoa(int(port))))
	latency := time.Since(start)
	if err == nil {
		conn.Close()
	} else if ctx.Err() != nil {
		return ProbeResult{}, false
	}

	state, cause := classify(err)
	result = ProbeResult{
		Port:    port,
		State:   state,
		Latency: latency,
		Cause:   cause,
	}

	entry := log.WithFields(log.Fields{
		"port":    port,
		"state":   state.String(),
		"latency": latency,
	})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Debug("Probe finished")

	return result, true
}
