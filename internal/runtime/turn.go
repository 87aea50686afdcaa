package runtime

import (
	"context"
	"time"

	"github.com/aretw0/bartender/pkg/domain"
)

// input is what a handler resumes with. Exactly one field is meaningful,
// depending on the kind of frame being resumed.
type input struct {
	Text   string
	Yes    bool
	Choice domain.Choice
	Result *domain.Result
}

type handler func(t *turn, in input) error

// turn is the scratch state of one Process call.
type turn struct {
	ctx     context.Context
	e       *Engine
	session *domain.Session
	facts   *domain.UserFacts

	replies  []domain.Reply
	remember string
	orders   []domain.OrderEvent
}

// readInput converts raw text into the input expected by the active frame.
// ok is false when the text did not answer the prompt and a retry was issued instead.
func (t *turn) readInput(f *domain.Frame, text string) (input, bool, error) {
	switch f.Kind {
	case domain.FrameWaitingConfirmation:
		yes, ok := parseConfirmation(text)
		if !ok {
			return input{}, false, t.reprompt(f)
		}
		return input{Text: text, Yes: yes}, true, nil
	case domain.FrameWaitingChoice:
		c, ok := matchChoice(text, f.Choices)
		if !ok {
			return input{}, false, t.reprompt(f)
		}
		return input{Text: text, Choice: c}, true, nil
	}
	return input{Text: text}, true, nil
}

func (t *turn) say(text string) {
	t.replies = append(t.replies, domain.Reply{Text: text})
}

// ask turns f into a prompt waiting for input and sends the prompt.
func (t *turn) ask(f *domain.Frame, kind domain.FrameKind, h domain.HandlerID, prompt, retry string, choices []domain.Choice) {
	f.Kind = kind
	f.Handler = h
	f.Prompt = prompt
	f.Retry = retry
	f.Choices = choices
	f.Attempts = 0
	t.replies = append(t.replies, domain.Reply{Text: prompt, Options: t.options(f)})
}

func (t *turn) options(f *domain.Frame) []string {
	switch f.Kind {
	case domain.FrameWaitingConfirmation:
		return []string{"Yes", "No"}
	case domain.FrameWaitingChoice:
		return labels(f.Choices)
	}
	if len(f.Choices) > 0 {
		return labels(f.Choices)
	}
	return nil
}

// reprompt counts a failed answer and re-issues the retry text, or gives up
// once the frame ran out of attempts.
func (t *turn) reprompt(f *domain.Frame) error {
	f.Attempts++
	if f.Attempts >= t.e.maxAttempts {
		t.e.logger.Debug("too many attempts", "conversation", t.session.ID, "handler", f.Handler, "attempts", f.Attempts)
		return t.giveUp()
	}
	text := f.Retry
	if text == "" {
		text = f.Prompt
	}
	t.replies = append(t.replies, domain.Reply{Text: text, Options: t.options(f)})
	return nil
}

// giveUp abandons the active dialog and returns control to the idle root.
func (t *turn) giveUp() error {
	t.say(t.e.phrases.StartOver)
	f := t.session.Top()
	if len(t.session.Stack) == 1 {
		t.idle(f)
		return nil
	}
	t.complete(f, domain.Result{Cancelled: true})
	return nil
}

// suspend parks f until the frame pushed above it completes.
func (t *turn) suspend(f *domain.Frame, h domain.HandlerID) {
	f.Kind = domain.FrameSuspended
	f.Handler = h
	f.Prompt = ""
	f.Retry = ""
	f.Choices = nil
	f.Attempts = 0
}

// push makes frame the active one and returns a pointer to it.
// Pointers to frames beneath it are invalid afterwards.
func (t *turn) push(frame domain.Frame) (*domain.Frame, error) {
	if len(t.session.Stack) >= MaxDepth {
		return nil, t.invariant(frame.Handler, "cannot push %s frame beyond depth %d", frame.Dialog, MaxDepth)
	}
	t.session.Push(frame)
	return t.session.Top(), nil
}

func (t *turn) complete(f *domain.Frame, r domain.Result) {
	f.Kind = domain.FrameCompleted
	f.Prompt = ""
	f.Retry = ""
	f.Choices = nil
	f.Result = &r
}

// idle resets the root frame to wait for a new request.
func (t *turn) idle(root *domain.Frame) {
	*root = t.e.RootFrame()
}

// catalogFailed reports a failed lookup to the user. The turn only fails when
// its own context is done.
func (t *turn) catalogFailed(lookup string, err error) error {
	if ctxErr := t.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	t.e.logger.Warn("catalog lookup failed", "conversation", t.session.ID, "lookup", lookup, "err", err)
	t.say(t.e.phrases.Unavailable)
	return nil
}

func (t *turn) base(typ domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp:      time.Now().UTC(),
		Type:           typ,
		ConversationID: t.session.ID,
		UserID:         t.session.UserID,
	}
}

func (t *turn) emitIntent(c domain.Classification) {
	if t.e.hooks.OnIntent == nil {
		return
	}
	t.e.hooks.OnIntent(t.ctx, &domain.IntentEvent{
		EventBase: t.base(domain.EventIntent),
		Intent:    c.Intent,
		Entities:  c.Entities,
	})
}

func (t *turn) emitRecommendation(n *domain.Narrowing, beer *domain.Beer) {
	if t.e.hooks.OnRecommendation == nil {
		return
	}
	t.e.hooks.OnRecommendation(t.ctx, &domain.RecommendationEvent{
		EventBase: t.base(domain.EventRecommendation),
		Strategy:  n.Strategy,
		Beer:      beer,
		Retries:   n.Retries,
	})
}
