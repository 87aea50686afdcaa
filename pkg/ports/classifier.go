package ports

import (
	"context"

	"github.com/aretw0/bartender/pkg/domain"
)

// Classifier maps inbound text to an intent and its entities.
// It is treated as a pure function that may fail transiently; the engine maps
// any error to domain.IntentUnidentified.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) (domain.Classification, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (domain.Classification, error) {
	return f(ctx, text)
}
