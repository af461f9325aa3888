package router

import (
	"context"
	"sync"

	"github.com/park285/parlor-bot/internal/chat"
	"go.uber.org/zap"
)

// HandleFunc processes one event; (*Router).Handle satisfies it.
type HandleFunc func(ctx context.Context, ev chat.Event, out chat.Outbox) Result

type job struct {
	ctx context.Context
	ev  chat.Event
	out chat.Outbox
}

// Dispatcher runs events in arrival order per scope and in parallel across scopes.
// A scope has a drain goroutine only while its queue is non-empty.
type Dispatcher struct {
	handle HandleFunc
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string][]job
	wg     sync.WaitGroup
}

func NewDispatcher(handle HandleFunc, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{handle: handle, logger: logger, queues: make(map[string][]job)}
}

// Submit enqueues ev without blocking the caller (the transport's read loop).
func (d *Dispatcher) Submit(ctx context.Context, ev chat.Event, out chat.Outbox) {
	key := ev.ScopeID()
	d.mu.Lock()
	defer d.mu.Unlock()
	q, draining := d.queues[key]
	d.queues[key] = append(q, job{ctx: ctx, ev: ev, out: out})
	if !draining {
		d.wg.Add(1)
		go d.drain(key)
	}
}

func (d *Dispatcher) drain(key string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[key]
		if len(q) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		j := q[0]
		d.queues[key] = q[1:]
		d.mu.Unlock()

		res := d.handle(j.ctx, j.ev, j.out)
		d.logger.Debug("event_handled",
			zap.String("scope", key),
			zap.String("action", string(res.Action)),
			zap.String("key", res.Key.String()),
		)
	}
}

// Wait blocks until every queued event has been handled.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}
