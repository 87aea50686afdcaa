package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/bartender/pkg/domain"
)

// nopStore accepts everything and remembers nothing.
type nopStore struct{}

func (nopStore) Save(ctx context.Context, s *domain.Session) error { return nil }
func (nopStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (nopStore) Delete(ctx context.Context, id string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error) { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("conversation-%d", i)
		_ = mgr.Save(ctx, &domain.Session{ID: id})
		_ = mgr.Delete(ctx, id)
	}

	if n := mgr.activeLocks(); n != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", n)
	}
}
