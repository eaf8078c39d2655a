package store

import (
	domainevents "mindcanvas/domain/events"
)

// Transaction runs fn with per-action notifications deferred. When the
// outermost transaction returns, one TRANSACTION_COMMIT event carrying
// every constituent change (in original order) is emitted instead of N
// separate notifications. Mutations are still applied individually;
// the transaction batches notifications, it is not a rollback scope.
//
// Nested calls flatten into the outermost batch. The caller is
// expected to own the store for the duration of fn: concurrent
// mutations from other goroutines would be folded into the batch.
func (s *Store) Transaction(fn func() error) error {
	s.txMu.Lock()
	s.txDepth++
	s.txMu.Unlock()

	err := fn()

	s.txMu.Lock()
	s.txDepth--
	var batch []domainevents.DomainEvent
	if s.txDepth == 0 {
		batch = s.txEvents
		s.txEvents = nil
	}
	s.txMu.Unlock()

	if len(batch) > 0 {
		s.bus.Emit(domainevents.NewTransactionCommitted(batch))
	}
	return err
}
