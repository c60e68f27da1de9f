package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect  Action = "select"
	ActionClear   Action = "clear"
	ActionConfirm Action = "confirm"
	ActionSubmit  Action = "submit"
	ActionPing    Action = "ping"
)

// RequestEnvelope carries every client action. QID and Option are only set
// for answer actions.
type RequestEnvelope struct {
	Action Action `json:"action"`
	QID    string `json:"q_id,omitempty"`
	Option *int   `json:"option,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError        Event = "error"
	EventSaved        Event = "saved"
	EventTick         Event = "tick"
	EventConfirmation Event = "confirmation"
	EventFinalized    Event = "finalized"
	EventPong         Event = "pong"
)

// SavedResponse acknowledges an answer mutation.
type SavedResponse struct {
	Event          Event `json:"event"`
	AttemptedCount int   `json:"attempted_count"`
}

// TickResponse streams the countdown once per second.
type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

// ConfirmationResponse carries the pre-submit prompt snapshot.
type ConfirmationResponse struct {
	Event            Event `json:"event"`
	AttemptedCount   int   `json:"attempted_count"`
	TotalQuestions   int   `json:"total_questions"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

// FinalizedResponse announces the terminal outcome. Exactly one of Score
// and Submission is present, mirroring the exam format.
type FinalizedResponse struct {
	Event      Event       `json:"event"`
	Trigger    string      `json:"trigger"`
	Score      interface{} `json:"score,omitempty"`
	Submission interface{} `json:"submission,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
