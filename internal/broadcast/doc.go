// Package broadcast implements the live order feed: the connection Registry, the
// Broadcaster that fans envelopes out to every registered viewer, and the Gateway that
// turns order mutations into envelopes.
//
// The Broadcaster encodes each envelope once and sends the same bytes to every viewer,
// one attempt per connection. Connections whose send fails are removed from the Registry in
// one batch after the round. The Registry lock is never held while sending.
package broadcast
