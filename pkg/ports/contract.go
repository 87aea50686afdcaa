package ports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/bartender/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSession(id string) *domain.Session {
	return domain.NewSession(id, "contract-user", domain.Frame{
		Dialog:  domain.DialogRoot,
		Kind:    domain.FrameWaitingMessage,
		Handler: "root.message",
	})
}

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := contractSession(sessionID)
		session.Stack[0].Kind = domain.FrameSuspended
		session.Push(domain.Frame{
			Dialog:   domain.DialogOrder,
			Kind:     domain.FrameWaitingChoice,
			Handler:  "order.chaser",
			Choices:  []domain.Choice{{Label: "Whiskey", Value: "Whiskey"}},
			Attempts: 1,
			Order:    &domain.OrderDraft{BeerName: "Pale Ale", BeerVerified: true},
		})
		session.Turns = 3

		err := store.Save(ctx, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.ID, loaded.ID)
		assert.Equal(t, session.UserID, loaded.UserID)
		assert.Equal(t, session.Turns, loaded.Turns)
		require.Len(t, loaded.Stack, 2)
		assert.Equal(t, domain.FrameSuspended, loaded.Stack[0].Kind)
		top := loaded.Top()
		assert.Equal(t, domain.HandlerID("order.chaser"), top.Handler)
		require.NotNil(t, top.Order)
		assert.Equal(t, "Pale Ale", top.Order.BeerName)
		assert.True(t, top.Order.BeerVerified)
		assert.Equal(t, 1, top.Attempts)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Stack = nil

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotEmpty(t, again.Stack)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, contractSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, contractSession(id1)))
		require.NoError(t, store.Save(ctx, contractSession(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunFactsStoreContract verifies that a FactsStore implementation adheres to the
// interface contract, including lost-update protection under concurrency.
func RunFactsStoreContract(t *testing.T, store FactsStore) {
	ctx := context.Background()
	userID := "contract-user-" + time.Now().Format("20060102150405")

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.LoadFacts(ctx, "nobody-"+userID)
		assert.ErrorIs(t, err, domain.ErrFactsNotFound)
	})

	t.Run("Update and Load", func(t *testing.T) {
		err := store.UpdateFacts(ctx, userID, func(f *domain.UserFacts) error {
			assert.Empty(t, f.LastOrderedBeerName, "first update starts from zero facts")
			f.LastOrderedBeerName = "Pale Ale"
			return nil
		})
		require.NoError(t, err)

		facts, err := store.LoadFacts(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, facts.UserID)
		assert.Equal(t, "Pale Ale", facts.LastOrderedBeerName)
	})

	t.Run("Update error aborts", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.UpdateFacts(ctx, userID, func(f *domain.UserFacts) error {
			f.LastOrderedBeerName = "Never Saved"
			return boom
		})
		assert.ErrorIs(t, err, boom)

		facts, err := store.LoadFacts(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "Pale Ale", facts.LastOrderedBeerName)
	})

	t.Run("Concurrent updates are not lost", func(t *testing.T) {
		counterUser := userID + "-counter"
		const writers = 8

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.UpdateFacts(ctx, counterUser, func(f *domain.UserFacts) error {
					f.LastOrderedBeerName += "x"
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		facts, err := store.LoadFacts(ctx, counterUser)
		require.NoError(t, err)
		assert.Len(t, facts.LastOrderedBeerName, writers)
	})
}
