package geocode

import (
	"context"
	"sync"
	"time"

	"github.com/logistics-platform/freight-service/internal/domain"
)

// NotifyFunc receives the outcome of a debounced resolution. A nil
// coordinates value with a nil error means the address did not resolve and
// any previously displayed coordinates must be cleared.
type NotifyFunc func(address string, coords *domain.Coordinates, err error)

// DebouncedResolver coalesces rapid address edits into a single geocode call.
// Each Trigger restarts the quiescence window and supersedes any in-flight
// resolution: the freshest edit always wins, regardless of response order.
type DebouncedResolver struct {
	resolver Resolver
	delay    time.Duration
	notify   NotifyFunc

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	seq     uint64
	stopped bool
}

// NewDebouncedResolver creates a DebouncedResolver. delay is the input
// quiescence window before a resolution fires.
func NewDebouncedResolver(resolver Resolver, delay time.Duration, notify NotifyFunc) *DebouncedResolver {
	return &DebouncedResolver{
		resolver: resolver,
		delay:    delay,
		notify:   notify,
	}
}

// Trigger schedules a resolution of address after the quiescence window.
// Any pending or in-flight resolution is superseded.
func (d *DebouncedResolver) Trigger(ctx context.Context, address string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(ctx, seq, address)
	})
}

func (d *DebouncedResolver) fire(parent context.Context, seq uint64, address string) {
	d.mu.Lock()
	if seq != d.seq || d.stopped {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.mu.Unlock()

	coords, err := d.resolver.Resolve(ctx, address)

	d.mu.Lock()
	superseded := seq != d.seq || d.stopped
	d.mu.Unlock()

	// A newer edit arrived while this resolution was in flight; its result
	// is stale and must be discarded.
	if superseded || ctx.Err() != nil {
		return
	}

	d.notify(address, coords, err)
}

// Stop cancels any pending or in-flight resolution. The resolver must not be
// triggered again after Stop.
func (d *DebouncedResolver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
