package eventhub

// TypedPayload is a Payload whose value and context have been asserted to
// concrete types.
type TypedPayload[V, C any] struct {
	Value   V
	Context C

	// HasContext is false when no context was supplied. Context is then the
	// zero value of C.
	HasContext bool
}

// Topic is a typed view of one event name on a Router. It adds no state of
// its own: any number of Topics for the same name share one channel and one
// cache entry.
//
// Payloads published untyped through the Router whose value or context do
// not hold V or C arrive with the zero value in that field.
type Topic[V, C any] struct {
	router *Router
	name   Name
}

// NewTopic binds name on r to the value type V and context type C.
func NewTopic[V, C any](r *Router, name Name) Topic[V, C] {
	return Topic[V, C]{router: r, name: name}
}

// Name returns the event name.
func (t Topic[V, C]) Name() Name {
	return t.name
}

// Notify publishes value with eventCtx as its context.
func (t Topic[V, C]) Notify(value V, eventCtx C) {
	t.router.Notify(t.name, value, eventCtx)
}

// NotifyValue publishes value with no context.
func (t Topic[V, C]) NotifyValue(value V) {
	t.router.Notify(t.name, value, nil)
}

// Subscribe registers fn for this topic. Options behave as for Router.Subscribe.
func (t Topic[V, C]) Subscribe(fn func(TypedPayload[V, C]), opts ...SubscribeOption) *Handle {
	if fn == nil {
		return t.router.Subscribe(t.name, nil, opts...)
	}
	return t.router.Subscribe(t.name, func(p Payload) {
		fn(typed[V, C](p))
	}, opts...)
}

// Current returns the cached payload for this topic.
func (t Topic[V, C]) Current() (TypedPayload[V, C], bool) {
	p, ok := t.router.CurrentValue(t.name)
	if !ok {
		return TypedPayload[V, C]{}, false
	}
	return typed[V, C](p), true
}

// Set overwrites the cached value without notifying subscribers.
func (t Topic[V, C]) Set(value V) {
	t.router.SetCurrentValue(t.name, value)
}

func typed[V, C any](p Payload) TypedPayload[V, C] {
	var out TypedPayload[V, C]
	if v, ok := p.Value.(V); ok {
		out.Value = v
	}
	if p.Context != nil {
		out.HasContext = true
		if c, ok := p.Context.(C); ok {
			out.Context = c
		}
	}
	return out
}
