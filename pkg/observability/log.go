package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/bartender/pkg/domain"
)

// LogHooks writes every lifecycle event to logger.
// Turn starts are logged at debug level, everything else at info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_start",
				"conversation_id", e.ConversationID,
				"handler", e.Handler,
				"depth", e.Depth,
			)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			level := slog.LevelInfo
			if e.Outcome == "error" || e.Outcome == "timeout" {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "turn_end",
				"conversation_id", e.ConversationID,
				"outcome", e.Outcome,
				"replies", e.Replies,
				"depth", e.Depth,
				"duration", e.Duration,
			)
		},
		OnIntent: func(ctx context.Context, e *domain.IntentEvent) {
			logger.InfoContext(ctx, "intent",
				"conversation_id", e.ConversationID,
				"intent", e.Intent,
			)
		},
		OnRecommendation: func(ctx context.Context, e *domain.RecommendationEvent) {
			beer := ""
			if e.Beer != nil {
				beer = e.Beer.Name
			}
			logger.InfoContext(ctx, "recommendation",
				"conversation_id", e.ConversationID,
				"strategy", e.Strategy,
				"beer", beer,
				"retries", e.Retries,
			)
		},
		OnOrderPlaced: func(ctx context.Context, e *domain.OrderEvent) {
			logger.InfoContext(ctx, "order_placed",
				"conversation_id", e.ConversationID,
				"user_id", e.UserID,
				"beer", e.Order.BeerName,
				"chaser", e.Order.Chaser,
				"side_dish", e.Order.SideDish,
			)
		},
	}
}
