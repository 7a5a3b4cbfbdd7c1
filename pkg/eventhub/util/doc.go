// Package util holds small stateless helpers that event producers and
// consumers use around payloads: safe nested access, flattening, class-name
// joining, id generation, and deep copies.
//
// None of these functions panic on malformed input; they return a zero
// value or an error instead.
package util
