package webhook

import "context"

// Dispatcher looks up enabled subscriptions for an emitted event, issues
// outbound HTTP POSTs with a bounded timeout, and records a history row per
// attempt (4.4). One Dispatcher instance is shared by every Instance; each
// call names the Instance it dispatches for.
type Dispatcher interface {
	// Dispatch fans the (instanceId, event, data) triple out to every
	// enabled matching subscription concurrently. It does not return an
	// error: delivery failures are contained (7 — "Propagation"); callers
	// that need completion for tests can use DispatchAndWait.
	Dispatch(ctx context.Context, instanceID, event string, data map[string]interface{})

	// DispatchAndWait behaves like Dispatch but blocks until every attempt
	// (and its history write) has settled, returning the resulting history
	// rows. Dispatch runs it on a background goroutine; the live ingestion
	// pipeline uses Dispatch.
	DispatchAndWait(ctx context.Context, instanceID, event string, data map[string]interface{}) []*History
}
