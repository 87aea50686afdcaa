package domain

// DialogID names the dialog a frame belongs to.
type DialogID string

const (
	DialogRoot      DialogID = "root"
	DialogRecommend DialogID = "recommend"
	DialogOrder     DialogID = "order"
)

// HandlerID names the continuation invoked when a frame resumes.
// The runtime owns the dispatch table that maps IDs to functions.
type HandlerID string

// FrameKind tags what the frame is waiting for.
type FrameKind string

const (
	// FrameWaitingMessage resumes with the raw inbound text.
	FrameWaitingMessage FrameKind = "waiting_message"
	// FrameWaitingConfirmation resumes with a yes/no answer.
	FrameWaitingConfirmation FrameKind = "waiting_confirmation"
	// FrameWaitingChoice resumes with one of Choices.
	FrameWaitingChoice FrameKind = "waiting_choice"
	// FrameSuspended is a parent waiting for the result of the frame above it.
	FrameSuspended FrameKind = "suspended"
	// FrameCompleted carries a Result for the parent and is popped by the engine.
	FrameCompleted FrameKind = "completed"
)

// Choice is one entry of a choice prompt.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Frame is one resumable unit of dialog logic on a conversation's stack.
type Frame struct {
	Dialog  DialogID  `json:"dialog"`
	Kind    FrameKind `json:"kind"`
	Handler HandlerID `json:"handler,omitempty"`

	// Prompt and Retry are re-issued when an answer cannot be understood.
	Prompt   string   `json:"prompt,omitempty"`
	Retry    string   `json:"retry,omitempty"`
	Choices  []Choice `json:"choices,omitempty"`
	Attempts int      `json:"attempts,omitempty"`

	// Dialog-local state. At most one is set, depending on Dialog.
	Narrowing *Narrowing  `json:"narrowing,omitempty"`
	Order     *OrderDraft `json:"order,omitempty"`
	Beer      *Beer       `json:"beer,omitempty"`

	Result *Result `json:"result,omitempty"`
}

// Waiting reports whether the frame consumes inbound messages.
func (f *Frame) Waiting() bool {
	switch f.Kind {
	case FrameWaitingMessage, FrameWaitingConfirmation, FrameWaitingChoice:
		return true
	}
	return false
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	next := f
	if f.Choices != nil {
		next.Choices = append([]Choice(nil), f.Choices...)
	}
	if f.Narrowing != nil {
		n := f.Narrowing.Clone()
		next.Narrowing = &n
	}
	if f.Order != nil {
		o := *f.Order
		next.Order = &o
	}
	if f.Beer != nil {
		b := *f.Beer
		next.Beer = &b
	}
	if f.Result != nil {
		r := f.Result.Clone()
		next.Result = &r
	}
	return next
}

// Result is the value a completed frame hands to its parent.
// A zero Result (no Beer, no Order) means the sub-dialog ended without an answer.
type Result struct {
	Beer      *Beer      `json:"beer,omitempty"`
	Order     *BeerOrder `json:"order,omitempty"`
	Cancelled bool       `json:"cancelled,omitempty"`
}

// Clone returns a deep copy of the result.
func (r Result) Clone() Result {
	next := r
	if r.Beer != nil {
		b := *r.Beer
		next.Beer = &b
	}
	if r.Order != nil {
		o := *r.Order
		next.Order = &o
	}
	return next
}
