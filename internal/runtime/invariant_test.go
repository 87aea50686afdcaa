package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/bartender/internal/runtime"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_CorruptStacks(t *testing.T) {
	e := newEngine(fixtureCatalog())
	root := e.RootFrame()

	suspendedRoot := root
	suspendedRoot.Kind = domain.FrameSuspended
	suspendedRoot.Handler = runtime.HandlerRootAfterRecommend

	tests := []struct {
		name  string
		stack []domain.Frame
	}{
		{
			name:  "empty stack",
			stack: nil,
		},
		{
			name:  "suspended frame on top",
			stack: []domain.Frame{suspendedRoot},
		},
		{
			name: "unknown handler",
			stack: []domain.Frame{{
				Dialog:  domain.DialogRoot,
				Kind:    domain.FrameWaitingMessage,
				Handler: "root.nowhere",
			}},
		},
		{
			name: "waiting frame below the top",
			stack: []domain.Frame{root, {
				Dialog:  domain.DialogOrder,
				Kind:    domain.FrameWaitingMessage,
				Handler: runtime.HandlerOrderBeer,
				Order:   &domain.OrderDraft{},
			}},
		},
		{
			name: "order frame without draft",
			stack: []domain.Frame{
				{Dialog: domain.DialogRoot, Kind: domain.FrameSuspended, Handler: runtime.HandlerRootAfterOrder},
				{Dialog: domain.DialogOrder, Kind: domain.FrameWaitingMessage, Handler: runtime.HandlerOrderBeer},
			},
		},
		{
			name: "offer without beer",
			stack: []domain.Frame{{
				Dialog:  domain.DialogRoot,
				Kind:    domain.FrameWaitingConfirmation,
				Handler: runtime.HandlerRootOfferOrder,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := e.NewSession("broken", "u1")
			s.Stack = tt.stack

			_, err := e.Process(context.Background(), s, nil, "yes")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvariant)

			var inv *runtime.InvariantError
			require.True(t, errors.As(err, &inv))
			assert.Equal(t, "broken", inv.ConversationID)
		})
	}
}

func TestEngine_SecondRecommendationWhilePending(t *testing.T) {
	e := newEngine(fixtureCatalog())
	pending := domain.Beer{ID: 1, Name: "Sierra Nevada Pale Ale"}
	stout := domain.Beer{ID: 5, Name: "Stout"}

	s := e.NewSession("c1", "u1")
	s.Stack = []domain.Frame{
		{Dialog: domain.DialogRoot, Kind: domain.FrameSuspended, Handler: runtime.HandlerRootAfterRecommend, Beer: &pending},
		{
			Dialog:    domain.DialogRecommend,
			Kind:      domain.FrameWaitingChoice,
			Handler:   runtime.HandlerRecommendPick,
			Choices:   []domain.Choice{{Label: "Stout", Value: "5"}, {Label: "Guinness Draught", Value: "3"}},
			Narrowing: &domain.Narrowing{Strategy: domain.StrategyName, Candidates: []domain.Beer{stout, {ID: 3, Name: "Guinness Draught"}}},
		},
	}

	_, err := e.Process(context.Background(), s, nil, "Stout")
	assert.ErrorIs(t, err, domain.ErrInvariant)
}

func TestEngine_PickOutsideCandidates(t *testing.T) {
	e := newEngine(fixtureCatalog())
	s := e.NewSession("c1", "u1")
	s.Stack = []domain.Frame{
		{Dialog: domain.DialogRoot, Kind: domain.FrameSuspended, Handler: runtime.HandlerRootAfterRecommend},
		{
			Dialog:    domain.DialogRecommend,
			Kind:      domain.FrameWaitingChoice,
			Handler:   runtime.HandlerRecommendPick,
			Choices:   []domain.Choice{{Label: "Stout", Value: "5"}},
			Narrowing: &domain.Narrowing{Strategy: domain.StrategyName},
		},
	}

	_, err := e.Process(context.Background(), s, nil, "1")
	assert.ErrorIs(t, err, domain.ErrInvariant)
}

func TestEngine_HandlersRegistered(t *testing.T) {
	e := newEngine(fixtureCatalog())
	assert.ElementsMatch(t, []domain.HandlerID{
		runtime.HandlerRootMessage,
		runtime.HandlerRootReorder,
		runtime.HandlerRootOfferOrder,
		runtime.HandlerRootAfterRecommend,
		runtime.HandlerRootAfterOrder,
		runtime.HandlerRootAfterOfferedOrder,
		runtime.HandlerRecommendStrategy,
		runtime.HandlerRecommendCategory,
		runtime.HandlerRecommendStyle,
		runtime.HandlerRecommendCountry,
		runtime.HandlerRecommendBrewery,
		runtime.HandlerRecommendName,
		runtime.HandlerRecommendPick,
		runtime.HandlerOrderBeer,
		runtime.HandlerOrderChaser,
		runtime.HandlerOrderSide,
	}, e.Handlers())
}
