package ports

import "github.com/tgruber/ncusers/internal/domain"

// ProgressSink receives one line per notable occurrence during a batch run
// and a single terminal completion signal. Implementations must not block
// the caller.
type ProgressSink interface {
	Event(message string)
	Complete(created, attempted int)
}

// Confirmer is asked once, before any remote state is mutated, whether the
// run should proceed. The decision is synchronous.
type Confirmer interface {
	Confirm(summary domain.BatchSummary) bool
}
