package eventhub

import "reflect"

// MatchContext wraps cb so it only runs for payloads whose context equals
// want. A nil want matches payloads without a context.
func MatchContext(want any, cb Callback) Callback {
	return FilterContext(func(ctx any) bool {
		return reflect.DeepEqual(ctx, want)
	}, cb)
}

// FilterContext wraps cb so it only runs when pred accepts the payload's
// context. The router always delivers to every subscriber; filtering happens
// here, inside the subscriber.
func FilterContext(pred func(eventCtx any) bool, cb Callback) Callback {
	if pred == nil || cb == nil {
		return cb
	}
	return func(p Payload) {
		if pred(p.Context) {
			cb(p)
		}
	}
}
