package ledger

import "context"

// CommittedEvent describes a ledger transaction that reached the log.
type CommittedEvent struct {
	Record TransactionRecord
}

// EventHandler is notified after a ledger operation commits. Used to
// invalidate read-side caches; failures are logged, never propagated.
type EventHandler interface {
	HandleLedgerCommitted(ctx context.Context, evt CommittedEvent)
}
