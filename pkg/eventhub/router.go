package eventhub

import (
	"context"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/eventhub/pkg/eventhub/diagnostics"
	"github.com/randalmurphal/eventhub/pkg/eventhub/observability"
)

// Router is an in-process publish/subscribe hub with a last-value cache.
//
// Notify delivers synchronously on the calling goroutine. The router is safe
// for concurrent use, and no internal lock is held while a callback runs, so
// callbacks may call back into the router.
type Router struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	sink    diagnostics.Sink
	onPanic func(*CallbackPanicError)

	mu       sync.RWMutex
	channels map[Name]*channel
	last     map[Name]Payload

	nextID atomic.Uint64
}

// New creates an empty router.
func New(opts ...Option) *Router {
	r := &Router{
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		channels: make(map[Name]*channel),
		last:     make(map[Name]Payload),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = observability.EnrichLogger(r.logger, "router")
	return r
}

// Notify records the payload as the current value for name and delivers it
// to every active subscriber of name, in subscription order, before
// returning.
//
// With no subscribers the payload is only cached.
func (r *Router) Notify(name Name, value, eventCtx any) {
	p := Payload{Value: value, Context: eventCtx}

	r.mu.Lock()
	r.last[name] = p
	ch := r.channels[name]
	r.mu.Unlock()

	delivered := 0
	if ch != nil {
		delivered = r.deliver(ch, p)
	}

	r.metrics.RecordNotify(context.Background(), string(name), delivered)
	observability.LogNotify(r.logger, string(name), delivered, ch != nil)
}

// NotifyAll notifies each name in order with the same value and context.
// Delivery for one name, including any notifications its callbacks make,
// finishes before the next name starts.
func (r *Router) NotifyAll(names []Name, value, eventCtx any) {
	for _, name := range names {
		r.Notify(name, value, eventCtx)
	}
}

func (r *Router) deliver(ch *channel, p Payload) int {
	delivered := 0
	for _, reg := range ch.snapshot() {
		// Cancelled by an earlier callback in this pass.
		if !reg.active.Load() {
			continue
		}
		r.invoke(ch.name, reg.id, reg.cb, p, false)
		delivered++
	}
	return delivered
}

// invoke runs cb, recovering and reporting any panic.
func (r *Router) invoke(name Name, id uint64, cb Callback, p Payload, replay bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.reportPanic(&CallbackPanicError{
				Event:          name,
				SubscriptionID: id,
				Payload:        p,
				Recovered:      rec,
				Stack:          debug.Stack(),
				Replay:         replay,
			})
		}
	}()
	cb(p)
}

func (r *Router) reportPanic(perr *CallbackPanicError) {
	observability.LogCallbackPanic(r.logger, string(perr.Event), perr.SubscriptionID, perr.Recovered)
	r.metrics.RecordCallbackPanic(context.Background(), string(perr.Event))

	if r.sink != nil {
		f := diagnostics.NewFailure(diagnostics.SourceRouter, string(perr.Event), perr.Recovered).
			WithDetail(string(perr.Stack))
		if err := r.sink.Record(context.Background(), f); err != nil && r.logger != nil {
			r.logger.Warn("failed to record callback panic", "event", string(perr.Event), "error", err)
		}
	}

	if r.onPanic != nil {
		r.onPanic(perr)
	}
}

// Subscribe registers cb for name and returns a handle that cancels it.
//
// With WithLastValue, a cached payload for name is passed to cb before it is
// registered, so cb never sees the replay after a live delivery. With
// WithGroup, the handle is appended to the group under name.
//
// A nil cb yields a handle that is already inactive.
func (r *Router) Subscribe(name Name, cb Callback, opts ...SubscribeOption) *Handle {
	var cfg subscribeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ch := r.channel(name)
	reg := &registration{id: r.nextID.Add(1), cb: cb}
	h := &Handle{router: r, ch: ch, reg: reg}

	if cb == nil {
		if r.logger != nil {
			r.logger.Warn("subscribe with nil callback ignored", "event", string(name))
		}
		return h
	}

	replayed := false
	if cfg.withLastValue {
		if p, ok := r.CurrentValue(name); ok {
			r.invoke(name, reg.id, cb, p, true)
			replayed = true
		}
	}

	ch.add(reg)
	if cfg.group != nil {
		cfg.group.add(h)
	}

	r.metrics.RecordSubscription(context.Background(), string(name), 1)
	observability.LogSubscribe(r.logger, string(name), reg.id, replayed)
	return h
}

// channel returns the channel for name, creating it if needed.
func (r *Router) channel(name Name) *channel {
	r.mu.RLock()
	ch, ok := r.channels[name]
	r.mu.RUnlock()
	if ok {
		return ch
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok = r.channels[name]; ok {
		return ch
	}
	ch = newChannel(name)
	r.channels[name] = ch
	return ch
}

// Unsubscribe cancels each handle. Nil handles, handles that were already
// cancelled, and handles from another router are ignored.
func (r *Router) Unsubscribe(handles ...*Handle) {
	for _, h := range handles {
		if h == nil || h.router != r {
			continue
		}
		r.cancel(h)
	}
}

// UnsubscribeGroup cancels every handle in g. The group itself is left as is;
// its handles simply become inactive.
func (r *Router) UnsubscribeGroup(g Group) {
	for _, handles := range g {
		r.Unsubscribe(handles...)
	}
}

func (r *Router) cancel(h *Handle) {
	if h.ch == nil || h.reg == nil {
		return
	}
	if !h.ch.remove(h.reg) {
		return
	}
	r.metrics.RecordSubscription(context.Background(), string(h.ch.name), -1)
	observability.LogUnsubscribe(r.logger, string(h.ch.name), h.reg.id)
}

// CurrentValue returns the last payload recorded for name and whether one
// exists. A cached payload whose value is false, zero, or nil still counts.
func (r *Router) CurrentValue(name Name) (Payload, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.last[name]
	return p, ok
}

// CurrentValueOr returns the cached payload for name, or def if none exists.
func (r *Router) CurrentValueOr(name Name, def Payload) Payload {
	if p, ok := r.CurrentValue(name); ok {
		return p
	}
	return def
}

// SetCurrentValue overwrites the cached value for name without notifying
// anyone. Any cached context is cleared.
func (r *Router) SetCurrentValue(name Name, value any) {
	r.mu.Lock()
	r.last[name] = Payload{Value: value}
	r.mu.Unlock()
}

// SetCurrentValues applies SetCurrentValue to each name.
func (r *Router) SetCurrentValues(names []Name, value any) {
	r.mu.Lock()
	for _, name := range names {
		r.last[name] = Payload{Value: value}
	}
	r.mu.Unlock()
}

// HasChannel reports whether anything has ever subscribed to name.
func (r *Router) HasChannel(name Name) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[name]
	return ok
}

// SubscriberCount returns the number of active subscriptions for name.
func (r *Router) SubscriberCount(name Name) int {
	r.mu.RLock()
	ch := r.channels[name]
	r.mu.RUnlock()
	if ch == nil {
		return 0
	}
	return ch.len()
}

// Names returns every name that has a channel, sorted.
func (r *Router) Names() []Name {
	r.mu.RLock()
	names := make([]Name, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}
