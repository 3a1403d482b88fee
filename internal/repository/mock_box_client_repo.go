package repository

import (
	"context"
	"sync"

	"github.com/ppnshub/notification-hub/internal/domain"
)

// MockBoxRepository is a hand-written, in-memory implementation of
// BoxRepository used in unit tests.
type MockBoxRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Box
}

func NewMockBoxRepository() *MockBoxRepository {
	return &MockBoxRepository{byID: make(map[string]*domain.Box)}
}

func (m *MockBoxRepository) Insert(_ context.Context, box *domain.Box) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.byID {
		if b.BoxName == box.BoxName && b.BoxCreator.ClientID == box.BoxCreator.ClientID {
			return ErrDuplicateBoxName
		}
	}
	clone := *box
	m.byID[box.BoxID] = &clone
	return nil
}

func (m *MockBoxRepository) FindByID(_ context.Context, boxID string) (*domain.Box, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.byID[boxID]
	if !ok {
		return nil, domain.ErrBoxNotFound
	}
	clone := *b
	return &clone, nil
}

func (m *MockBoxRepository) FindByNameAndClientID(_ context.Context, boxName, clientID string) (*domain.Box, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.byID {
		if b.BoxName == boxName && b.BoxCreator.ClientID == clientID {
			clone := *b
			return &clone, nil
		}
	}
	return nil, domain.ErrBoxNotFound
}

func (m *MockBoxRepository) UpdateSubscriber(_ context.Context, boxID string, subscriber *domain.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[boxID]
	if !ok {
		return domain.ErrBoxNotFound
	}
	b.Subscriber = subscriber
	return nil
}

func (m *MockBoxRepository) ListByClientID(_ context.Context, clientID string) ([]*domain.Box, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Box
	for _, b := range m.byID {
		if b.BoxCreator.ClientID == clientID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

// MockClientRepository is a hand-written, in-memory implementation of
// ClientRepository used in unit tests.
type MockClientRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Client
}

func NewMockClientRepository() *MockClientRepository {
	return &MockClientRepository{byID: make(map[string]*domain.Client)}
}

func (m *MockClientRepository) FindByID(_ context.Context, clientID string) (*domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byID[clientID]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *MockClientRepository) Insert(_ context.Context, client *domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[client.ClientID]; exists {
		return nil
	}
	clone := *client
	m.byID[client.ClientID] = &clone
	return nil
}
