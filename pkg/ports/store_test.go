package ports_test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/ports"
)

// MockStore is a map-backed Store that round-trips through JSON to simulate serialization.
type MockStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	facts    map[string]domain.UserFacts
}

func NewMockStore() *MockStore {
	return &MockStore{
		sessions: make(map[string][]byte),
		facts:    make(map[string]domain.UserFacts),
	}
}

func (m *MockStore) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = data
	return nil
}

func (m *MockStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	data, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockStore) LoadFacts(ctx context.Context, userID string) (*domain.UserFacts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facts[userID]
	if !ok {
		return nil, domain.ErrFactsNotFound
	}
	return &f, nil
}

func (m *MockStore) UpdateFacts(ctx context.Context, userID string, fn func(*domain.UserFacts) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facts[userID]
	if !ok {
		f = domain.UserFacts{UserID: userID}
	}
	if err := fn(&f); err != nil {
		return err
	}
	m.facts[userID] = f
	return nil
}

var _ ports.Store = (*MockStore)(nil)

func TestMockStore_SessionContract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}

func TestMockStore_FactsContract(t *testing.T) {
	ports.RunFactsStoreContract(t, NewMockStore())
}

func TestClassifierFunc(t *testing.T) {
	var c ports.Classifier = ports.ClassifierFunc(func(ctx context.Context, text string) (domain.Classification, error) {
		return domain.Classification{Intent: domain.IntentGreet}, nil
	})
	got, err := c.Classify(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Intent != domain.IntentGreet {
		t.Errorf("expected Greet, got %s", got.Intent)
	}
}
