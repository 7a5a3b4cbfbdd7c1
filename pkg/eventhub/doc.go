// Package eventhub provides an in-process event router with a last-value
// cache.
//
// # Overview
//
// Components publish values under event names and subscribe callbacks to
// names they care about. Every notification is also remembered, so a
// component that arrives late can ask for the current value or have it
// replayed when it subscribes.
//
//	r := eventhub.New()
//
//	h := r.Subscribe("temp", func(p eventhub.Payload) {
//	    fmt.Println(p.Value, p.Context)
//	})
//
//	r.Notify("temp", 72, "sensorA")       // prints 72 sensorA
//	r.Unsubscribe(h)
//	r.Notify("temp", 80, "sensorA")       // nobody listening
//	p, _ := r.CurrentValue("temp")        // {80 sensorA}
//
// # Delivery
//
// Notify delivers synchronously, on the caller's goroutine, to every active
// subscriber of the name in the order they subscribed. Delivery iterates a
// snapshot of the subscriber list, so callbacks may subscribe, unsubscribe,
// and notify re-entrantly: subscriptions added during a pass are not called
// in that pass, and subscriptions cancelled during a pass are skipped if not
// yet reached.
//
// NotifyAll publishes the same payload to several names in order. Delivery to
// one name finishes, including re-entrant work, before the next begins.
//
// # Last-value cache
//
// The cache stores the literal payload of the latest Notify or
// SetCurrentValue for each name. Presence, not truthiness, decides whether a
// value exists: false, 0, "" and nil are all cached and replayed.
//
//	r.Notify("ready", false, nil)
//	r.Subscribe("ready", cb, eventhub.WithLastValue()) // cb gets {false <nil>} now
//
// # Groups
//
// A Group collects handles so related subscriptions can be cancelled at once:
//
//	g := eventhub.NewGroup()
//	r.Subscribe("a", cbA, eventhub.WithGroup(g))
//	r.Subscribe("b", cbB, eventhub.WithGroup(g))
//	r.UnsubscribeGroup(g)
//
// # Failures
//
// A panicking callback does not stop delivery to the remaining subscribers.
// The router recovers the panic and reports it as a *CallbackPanicError: it
// is logged, counted, recorded in the failure sink if one is configured, and
// passed to the WithOnCallbackPanic hook. Publishers never see it.
//
// # Typed topics
//
// Topic gives one event name a fixed value and context type:
//
//	temp := eventhub.NewTopic[float64, string](r, "temp")
//	temp.Subscribe(func(p eventhub.TypedPayload[float64, string]) { ... })
//	temp.Notify(21.5, "sensorB")
package eventhub
