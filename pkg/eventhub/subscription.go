package eventhub

// Handle cancels one subscription. Each Subscribe call returns a new Handle;
// handles are never reused.
type Handle struct {
	router *Router
	ch     *channel
	reg    *registration
}

// ID returns the subscription's router-unique identifier.
func (h *Handle) ID() uint64 {
	if h == nil || h.reg == nil {
		return 0
	}
	return h.reg.id
}

// Name returns the event name the subscription listens to.
func (h *Handle) Name() Name {
	if h == nil || h.ch == nil {
		return ""
	}
	return h.ch.name
}

// Active reports whether the subscription still receives deliveries.
func (h *Handle) Active() bool {
	if h == nil || h.reg == nil {
		return false
	}
	return h.reg.active.Load()
}

// Cancel removes the subscription. Calling it more than once is a no-op.
func (h *Handle) Cancel() {
	if h == nil || h.router == nil {
		return
	}
	h.router.cancel(h)
}

// Group collects handles by event name so they can be cancelled together.
// The caller owns the map; Subscribe with WithGroup appends to it in place.
type Group map[Name][]*Handle

// NewGroup returns an empty group.
func NewGroup() Group {
	return make(Group)
}

// Len returns the total number of handles across all event names.
func (g Group) Len() int {
	n := 0
	for _, handles := range g {
		n += len(handles)
	}
	return n
}

// Handles returns every handle in the group. Order across names is unspecified.
func (g Group) Handles() []*Handle {
	out := make([]*Handle, 0, g.Len())
	for _, handles := range g {
		out = append(out, handles...)
	}
	return out
}

func (g Group) add(h *Handle) {
	name := h.Name()
	g[name] = append(g[name], h)
}
