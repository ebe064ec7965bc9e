package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quantum-redirect/internal/redirect/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordedEvent struct {
	clickID  string
	state    domain.State
	metadata map[string]string
}

type chanLedger struct {
	events chan recordedEvent
}

func newChanLedger() *chanLedger {
	return &chanLedger{events: make(chan recordedEvent, 8)}
}

func (l *chanLedger) RecordEvent(_ context.Context, clickID string, state domain.State, metadata map[string]string) error {
	l.events <- recordedEvent{clickID: clickID, state: state, metadata: metadata}
	return nil
}

func (l *chanLedger) next(t *testing.T) recordedEvent {
	t.Helper()
	select {
	case e := <-l.events:
		return e
	case <-time.After(time.Second):
		require.FailNow(t, "no event recorded")
		return recordedEvent{}
	}
}

func (l *chanLedger) none(t *testing.T) {
	t.Helper()
	select {
	case e := <-l.events:
		require.FailNow(t, "unexpected event", "%+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

type countingRecorder struct {
	mu         sync.Mutex
	violations []domain.Violation
}

func (r *countingRecorder) RecordRedirectStarted()                  {}
func (r *countingRecorder) RecordRedirectCompleted(time.Duration)   {}
func (r *countingRecorder) RecordStage(domain.State, time.Duration) {}

func (r *countingRecorder) RecordViolation(v domain.Violation, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, v)
}

func TestEventSink_AdvanceRecordsLegalMoves(t *testing.T) {
	ledger := newChanLedger()
	sink := eventSink{ledger: ledger, logger: zap.NewNop()}

	sink.begin("c1", map[string]string{"link_id": "1"})
	assert.Equal(t, domain.StateGenesis, ledger.next(t).state)

	for _, move := range [][2]domain.State{
		{domain.StateValidating, domain.StateTransit},
		{domain.StateRouting, domain.StateComplete},
		{domain.StateRouting, domain.StateRoutingFailed},
	} {
		sink.advance("c1", move[0], move[1], nil)
		assert.Equal(t, move[1], ledger.next(t).state)
	}
}

func TestEventSink_AdvanceDropsIllegalMoves(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	ledger := newChanLedger()
	sink := eventSink{ledger: ledger, logger: zap.New(core)}

	sink.advance("c1", domain.StateComplete, domain.StateGenesis, nil)
	sink.advance("c1", domain.StateGenesis, domain.StateComplete, nil)
	sink.advance("c1", domain.StateValidationFailed, domain.StateTransit, nil)

	ledger.none(t)
	entries := logs.FilterMessage("illegal click state transition").All()
	require.Len(t, entries, 3)
	assert.Equal(t, "COMPLETE", entries[0].ContextMap()["from"])
	assert.Equal(t, "GENESIS", entries[0].ContextMap()["to"])
}

func TestEventSink_IllegalMoveIsLoggedWithoutLedger(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	sink := eventSink{logger: zap.New(core)}

	sink.advance("c1", domain.StateTransit, domain.StateValidating, nil)

	assert.Equal(t, 1, logs.FilterMessage("illegal click state transition").Len())
}

func TestReject_InternalFaultIsNotAViolation(t *testing.T) {
	for _, stage := range []struct {
		name   string
		reject func(*countingRecorder, *chanLedger, *zap.Logger) func(string, error) error
		failed domain.State
	}{
		{
			name: "validation",
			reject: func(r *countingRecorder, l *chanLedger, log *zap.Logger) func(string, error) error {
				return NewValidationHub(nil, nil, ValidationConfig{}, l, r, log).reject
			},
			failed: domain.StateValidationFailed,
		},
		{
			name: "routing",
			reject: func(r *countingRecorder, l *chanLedger, log *zap.Logger) func(string, error) error {
				return NewRoutingGateway(nil, nil, nil, RoutingConfig{}, l, r, log).reject
			},
			failed: domain.StateRoutingFailed,
		},
	} {
		t.Run(stage.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			recorder := &countingRecorder{}
			ledger := newChanLedger()
			reject := stage.reject(recorder, ledger, zap.New(core))

			cause := errors.New("disk full")
			err := reject("c1", cause)

			assert.Equal(t, cause, err)
			_, isViolation := domain.AsViolation(err)
			assert.False(t, isViolation)
			assert.False(t, errors.Is(err, domain.ErrInvalidSignature))
			assert.Empty(t, recorder.violations)

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, reasonInternal, logs.All()[0].ContextMap()["reason"])

			e := ledger.next(t)
			assert.Equal(t, stage.failed, e.state)
			assert.Equal(t, map[string]string{"reason": reasonInternal}, e.metadata)
		})
	}
}

func TestReject_ViolationIsCountedAsEnforced(t *testing.T) {
	recorder := &countingRecorder{}
	ledger := newChanLedger()
	hub := NewValidationHub(nil, nil, ValidationConfig{}, ledger, recorder, zap.NewNop())

	err := hub.reject("c1", domain.ErrReplayAttack)

	assert.ErrorIs(t, err, domain.ErrReplayAttack)
	assert.Equal(t, []domain.Violation{domain.ErrReplayAttack}, recorder.violations)
	assert.Equal(t, map[string]string{"violation": "replay_attack"}, ledger.next(t).metadata)
}
