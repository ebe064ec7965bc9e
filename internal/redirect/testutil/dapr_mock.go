package testutil

import (
	"context"

	dapr "github.com/dapr/go-sdk/client"
	"github.com/stretchr/testify/mock"
)

// MockDaprClient is a testify mock for the Dapr client methods the click ledger publishes with.
// Publish options are accepted but not matched.
type MockDaprClient struct {
	mock.Mock
}

func (m *MockDaprClient) PublishEvent(ctx context.Context, pubsubName, topicName string, data interface{}, opts ...dapr.PublishEventOption) error {
	args := m.Called(ctx, pubsubName, topicName, data)
	return args.Error(0)
}
