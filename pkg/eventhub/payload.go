package eventhub

// Name identifies an event. Names are developer-defined constants, not user
// input: every name that is ever notified or subscribed stays in the router
// for its lifetime.
type Name string

// Payload is the datum delivered to subscribers and held in the last-value
// cache. A nil Context means no context was supplied.
type Payload struct {
	Value   any
	Context any
}

// HasContext reports whether a context token was supplied.
func (p Payload) HasContext() bool {
	return p.Context != nil
}

// Callback receives payloads for one subscription.
type Callback func(Payload)
