package sessiongate

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher relays session lifecycle events (creation, login, eviction,
// degradation, denial) from the request and reconcile paths to the configured
// sink without blocking them. Events queue on a bounded channel; under
// backpressure the dispatcher either discards (DropIfFull) or waits on the
// emitting context.
type auditDispatcher struct {
	cfg       AuditConfig
	sink      AuditSink
	events    chan AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		cfg:    cfg,
		sink:   sink,
		events: make(chan AuditEvent, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			// Drain what the resolve and reconcile paths already queued so
			// a shutdown does not silently lose eviction or denial records.
			for {
				select {
				case event := <-d.events:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues one session event for delivery. On a nil dispatcher (auditing
// disabled) or after Close it is a no-op, so emitting sites never need to
// check configuration themselves.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.events <- event:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops the relay after draining queued events. Safe to call more than
// once; later Emit calls become no-ops.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports how many events were discarded under backpressure since the
// dispatcher started.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
