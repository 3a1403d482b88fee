package repository

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
)

// MockNotificationStore is a hand-written, in-memory implementation of
// NotificationStore used in unit tests. No mock-generation library needed.
type MockNotificationStore struct {
	mu            sync.RWMutex
	notifications map[string]*domain.Notification
	boxes         BoxRepository
	logger        *zap.Logger

	SaveErr error
}

func NewMockNotificationStore(boxes BoxRepository) *MockNotificationStore {
	return &MockNotificationStore{
		notifications: make(map[string]*domain.Notification),
		boxes:         boxes,
		logger:        zap.NewNop(),
	}
}

func (m *MockNotificationStore) key(boxID, notificationID string) string {
	return boxID + "/" + notificationID
}

func (m *MockNotificationStore) Save(_ context.Context, n *domain.Notification) (bool, error) {
	if m.SaveErr != nil {
		return false, m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(n.BoxID, n.NotificationID)
	if _, exists := m.notifications[k]; exists {
		return false, nil
	}
	clone := *n
	m.notifications[k] = &clone
	return true, nil
}

func (m *MockNotificationStore) ListByBoxID(_ context.Context, boxID string, filter domain.ListFilter) ([]*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Notification
	for _, n := range m.notifications {
		if n.BoxID != boxID {
			continue
		}
		if filter.Status != nil && n.Status != *filter.Status {
			continue
		}
		if filter.From != nil && n.CreatedDateTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && n.CreatedDateTime.After(*filter.To) {
			continue
		}
		clone := *n
		out = append(out, &clone)
	}
	return out, nil
}

func (m *MockNotificationStore) FindByID(_ context.Context, notificationID string) (*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.notifications {
		if n.NotificationID == notificationID {
			clone := *n
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Acknowledge mirrors the Mongo implementation's semantics: only PENDING
// notifications transition to ACKNOWLEDGED, and the write is reported
// successful whenever it did not error — even if some or all of the
// requested ids were already terminal (spec.md §4.3, §8).
func (m *MockNotificationStore) Acknowledge(_ context.Context, boxID string, notificationIDs []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(notificationIDs))
	for _, id := range notificationIDs {
		wanted[id] = true
	}

	now := time.Now().UTC()
	modified := 0
	for _, n := range m.notifications {
		if n.BoxID == boxID && wanted[n.NotificationID] && n.Status == domain.StatusPending {
			n.Status = domain.StatusAcknowledged
			n.ReadDateTime = &now
			modified++
		}
	}
	if modified < len(notificationIDs) {
		m.logger.Warn("acknowledge matched fewer notifications than requested",
			zap.String("box_id", boxID),
			zap.Int("requested", len(notificationIDs)),
			zap.Int("modified", modified),
		)
	}
	return true, nil
}

func (m *MockNotificationStore) UpdateStatus(_ context.Context, notificationID string, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.NotificationID == notificationID {
			n.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockNotificationStore) ScheduleRetry(_ context.Context, notificationID string, retryAfter time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.NotificationID == notificationID {
			n.RetryAfterDateTime = &retryAfter
			n.DeliveryAttempts++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockNotificationStore) MarkPushed(_ context.Context, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, n := range m.notifications {
		if n.NotificationID == notificationID {
			n.PushedDateTime = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockNotificationStore) StreamRetryable(ctx context.Context) (<-chan RetryablePair, error) {
	m.mu.RLock()
	due := make([]*domain.Notification, 0)
	now := time.Now().UTC()
	for _, n := range m.notifications {
		if n.Status != domain.StatusPending {
			continue
		}
		if n.RetryAfterDateTime != nil && n.RetryAfterDateTime.After(now) {
			continue
		}
		clone := *n
		due = append(due, &clone)
	}
	m.mu.RUnlock()

	out := make(chan RetryablePair, len(due))
	go func() {
		defer close(out)
		for _, n := range due {
			box, err := m.boxes.FindByID(ctx, n.BoxID)
			if err != nil || !box.HasValidPushSubscriber() {
				continue
			}
			select {
			case out <- RetryablePair{Notification: n, Box: box}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
