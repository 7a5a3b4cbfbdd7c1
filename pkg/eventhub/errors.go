package eventhub

import "fmt"

// CallbackPanicError describes a subscriber callback that panicked during
// delivery. The router recovers the panic, reports it, and carries on with
// the remaining subscribers; publishers never see it.
type CallbackPanicError struct {
	Event          Name    // Event being delivered
	SubscriptionID uint64  // Subscription whose callback panicked
	Payload        Payload // Payload passed to the callback
	Recovered      any     // Value passed to panic
	Stack          []byte  // Stack trace at the point of recovery
	Replay         bool    // True if the panic happened during last-value replay
}

// Error implements error interface.
func (e *CallbackPanicError) Error() string {
	return fmt.Sprintf("event %s: subscription %d: callback panic: %v", e.Event, e.SubscriptionID, e.Recovered)
}

// Unwrap returns the recovered value if it was an error.
func (e *CallbackPanicError) Unwrap() error {
	if err, ok := e.Recovered.(error); ok {
		return err
	}
	return nil
}
