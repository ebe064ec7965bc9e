package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDaprLedger_PublishesJSONEvent(t *testing.T) {
	client := &testutil.MockDaprClient{}
	ledger := NewDaprLedger(client, "", "")
	ledger.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	var published []byte
	client.On("PublishEvent", mock.Anything, DefaultDaprPubSub, DefaultDaprTopic, mock.AnythingOfType("[]uint8")).
		Run(func(args mock.Arguments) { published = args.Get(3).([]byte) }).
		Return(nil).Once()

	err := ledger.RecordEvent(context.Background(), "click-1", domain.StateComplete, map[string]string{"short_code": "abc123"})
	require.NoError(t, err)
	client.AssertExpectations(t)

	var event domain.ClickEvent
	require.NoError(t, json.Unmarshal(published, &event))
	assert.Equal(t, "click-1", event.ClickID)
	assert.Equal(t, domain.StateComplete, event.State)
	assert.Equal(t, "abc123", event.Metadata["short_code"])
	assert.True(t, event.RecordedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestDaprLedger_CustomTopic(t *testing.T) {
	client := &testutil.MockDaprClient{}
	ledger := NewDaprLedger(client, "kafka-pubsub", "clicks")

	client.On("PublishEvent", mock.Anything, "kafka-pubsub", "clicks", mock.Anything).Return(nil).Once()

	require.NoError(t, ledger.RecordEvent(context.Background(), "c", domain.StateGenesis, nil))
	client.AssertExpectations(t)
}

func TestDaprLedger_PublishError(t *testing.T) {
	client := &testutil.MockDaprClient{}
	ledger := NewDaprLedger(client, "", "")

	client.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("sidecar unavailable"))

	err := ledger.RecordEvent(context.Background(), "c", domain.StateGenesis, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pubsub/quantum-clicks")
	assert.Contains(t, err.Error(), "sidecar unavailable")
}
