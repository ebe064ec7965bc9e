package usecase

import (
	"context"
	"time"

	"quantum-redirect/internal/redirect/domain"

	"go.uber.org/zap"
)

const ledgerTimeout = 5 * time.Second

// reasonInternal labels failures that are faults of this service rather than of the request.
const reasonInternal = "internal"

// eventSink forwards click events to the ledger without ever blocking or failing a redirect.
type eventSink struct {
	ledger ClickLedger // may be nil
	logger *zap.Logger
}

// begin records the first event of a click.
func (s eventSink) begin(clickID string, metadata map[string]string) {
	s.record(clickID, domain.StateGenesis, metadata)
}

// advance records a click moving from one protocol state to the next. Moves the state machine
// does not allow are logged and never reach the ledger.
func (s eventSink) advance(clickID string, from, to domain.State, metadata map[string]string) {
	if !from.CanTransition(to) {
		s.logger.Error("illegal click state transition",
			zap.String("click_id", clickID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return
	}
	s.record(clickID, to, metadata)
}

func (s eventSink) record(clickID string, state domain.State, metadata map[string]string) {
	if s.ledger == nil || clickID == "" {
		return
	}

	// Fire-and-forget: ledger failures are logged and otherwise ignored
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
		defer cancel()

		if err := s.ledger.RecordEvent(ctx, clickID, state, metadata); err != nil {
			s.logger.Warn("failed to record click event",
				zap.String("click_id", clickID),
				zap.String("state", string(state)),
				zap.Error(err),
			)
		}
	}()
}

// checkBudget logs stages that overran their processing-time target. Budgets are targets,
// never deadlines.
func checkBudget(logger *zap.Logger, state domain.State, clickID string, elapsed, budget time.Duration) {
	if budget > 0 && elapsed > budget {
		logger.Warn("stage exceeded processing budget",
			zap.String("stage", string(state)),
			zap.String("click_id", clickID),
			zap.Duration("elapsed", elapsed),
			zap.Duration("budget", budget),
		)
	}
}
