// Package events carries job requests from the HTTP layer to the task
// runner without either package importing the other.
//
// Publishers build an Event with New and hand it to a Bus. Subscribers
// register a Handler for one event type; the Bus delivers each event to
// every handler registered for its type, in registration order.
package events
