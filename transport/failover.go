package transport

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// Failover spreads exchanges across several transports round-robin and
// rotates to the next one when an attempt fails outright. A response
// with any status code counts as a result; only transport-level
// failures rotate. Each call still resolves to exactly one response or
// one error.
type Failover struct {
	targets []*target
	counter uint64
}

type target struct {
	transport Transport
	requests  uint64
	errors    uint64
}

// NewFailover creates a failover over the given transports
func NewFailover(transports ...Transport) (*Failover, error) {
	if len(transports) == 0 {
		return nil, errors.New("at least one transport is required")
	}

	targets := make([]*target, len(transports))
	for i, tr := range transports {
		targets[i] = &target{transport: tr}
	}
	return &Failover{targets: targets}, nil
}

// Do implements Transport. Within one call every target is tried at
// most once.
func (f *Failover) Do(ctx context.Context, req *Request) (*Response, error) {
	start := atomic.AddUint64(&f.counter, 1) - 1

	var lastErr error
	for i := range f.targets {
		tg := f.targets[(int(start)+i)%len(f.targets)]

		atomic.AddUint64(&tg.requests, 1)
		resp, err := tg.transport.Do(ctx, req)
		if err == nil {
			return resp, nil
		}
		atomic.AddUint64(&tg.errors, 1)
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("all transports failed: %w", lastErr)
}

// TargetStats reports the traffic one target has seen
type TargetStats struct {
	Requests uint64
	Errors   uint64
}

// Stats returns per-target counters in construction order
func (f *Failover) Stats() []TargetStats {
	stats := make([]TargetStats, len(f.targets))
	for i, tg := range f.targets {
		stats[i] = TargetStats{
			Requests: atomic.LoadUint64(&tg.requests),
			Errors:   atomic.LoadUint64(&tg.errors),
		}
	}
	return stats
}

var _ Transport = (*Failover)(nil)
