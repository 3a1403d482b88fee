package eventssink

import (
	"context"
	"sync"

	"github.com/ppnshub/notification-hub/internal/domain"
)

// MockClient is a hand-written recorder used in service unit tests.
type MockClient struct {
	mu     sync.Mutex
	Events []domain.CallbackURIUpdatedEvent
}

func (m *MockClient) EmitCallbackURIUpdated(_ context.Context, event domain.CallbackURIUpdatedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}
