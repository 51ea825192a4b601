// Package jsonadapter defines the request/response types for jsonadapter IPC.
// Messages are JSON-encoded and sent over a Unix domain socket, one per line.
package jsonadapter

// Request types. An empty type is a prediction request.
const (
	TypePredict     = "predict"
	TypeFeedback    = "feedback"
	TypeEvent       = "event"
	TypeDefinitions = "definitions"
	TypeStats       = "stats"
)

// Event names reported by the shell client.
const (
	EventDisplayed       = "displayed"
	EventAccepted        = "accepted"
	EventCommandAccepted = "command_accepted"
	EventExecuted        = "executed"
)

// Request is sent from the shell client to the daemon for predictions and
// feedback.
type Request struct {
	// RequestID is a per-session incrementing identifier assigned by the shell.
	// The daemon echoes it back in the response for ordering.
	RequestID int `json:"request_id"`
	// Type is "predict" (or empty) for suggestions while typing, and
	// "feedback" for a command line the user just ran.
	Type string `json:"type,omitempty"`
	// Input is the current command line content.
	Input string `json:"input"`
	// CursorPos is the cursor position within the input.
	CursorPos int `json:"cursor_pos"`
	// SessionID identifies the shell session.
	SessionID string `json:"session_id"`
	// MaxCandidates is the maximum number of candidates to return.
	MaxCandidates int `json:"max_candidates,omitempty"`
}

// Candidate is a full replacement command line with a confidence score.
type Candidate struct {
	// Completion is the full command line suggestion.
	Completion string `json:"completion" toml:"completion"`
	// Strategy names how the adapter was found ("naming" or "delegated").
	Strategy string `json:"strategy" toml:"strategy"`
	// Confidence is the rank-derived score (0.0 to 1.0).
	Confidence float64 `json:"confidence" toml:"confidence"`
}

// Feedback is a hint about a command line that was already run.
type Feedback struct {
	// Message is a short human-readable explanation.
	Message string `json:"message" toml:"message"`
	// Actions holds the recommended replacement command lines.
	Actions []string `json:"actions" toml:"actions"`
}

// Response is sent from the daemon back to the shell client.
type Response struct {
	// RequestID is echoed from the request for ordering on the client side.
	RequestID int `json:"request_id"`
	// Candidates is the list of suggestions, sorted by confidence descending.
	Candidates []Candidate `json:"candidates"`
	// Feedback is set for feedback requests that produced a hint.
	Feedback *Feedback `json:"feedback,omitempty"`
	// Error is set when the daemon cannot fulfill the request.
	Error *Error `json:"error,omitempty"`
}

// Error describes a daemon-side error returned to the shell client.
type Error struct {
	// Code is a machine-readable error identifier (e.g. "invalid_request", "parse_error").
	Code string `json:"code" toml:"code"`
	// Message is a human-readable error description.
	Message string `json:"message" toml:"message"`
}

// EventRequest reports what the user did with a suggestion.
type EventRequest struct {
	// Type is always "event".
	Type string `json:"type"`
	// Event is one of the Event* constants.
	Event string `json:"event"`
	// SessionID identifies the shell session.
	SessionID string `json:"session_id,omitempty"`
	// Text is the accepted suggestion or executed command line.
	Text string `json:"text,omitempty"`
	// Success is set for "executed" events.
	Success bool `json:"success,omitempty"`
}

// DefinitionsRequest pushes shell source declaring the client's functions
// and aliases, typically the output of `alias; declare -f`.
type DefinitionsRequest struct {
	// Type is always "definitions".
	Type string `json:"type"`
	// Source is shell source to scan for definitions.
	Source string `json:"source"`
}

// AckResponse answers event and definitions requests.
type AckResponse struct {
	// OK is true when the request was accepted.
	OK bool `json:"ok"`
	// Defined is the number of definitions registered.
	Defined int `json:"defined,omitempty"`
	// Error is set when the operation fails.
	Error *Error `json:"error,omitempty"`
}

// Stats are the usage counters kept by the daemon. They are informational
// and do not influence suggestions.
type Stats struct {
	SuggestionsDisplayed int64 `json:"suggestions_displayed" toml:"suggestions_displayed"`
	SuggestionsAccepted  int64 `json:"suggestions_accepted" toml:"suggestions_accepted"`
	CommandLinesAccepted int64 `json:"command_lines_accepted" toml:"command_lines_accepted"`
	CommandLinesExecuted int64 `json:"command_lines_executed" toml:"command_lines_executed"`
	FeedbackCancelled    int64 `json:"feedback_cancelled" toml:"feedback_cancelled"`
	PredictionsCancelled int64 `json:"predictions_cancelled" toml:"predictions_cancelled"`
	CachedAdapters       int   `json:"cached_adapters" toml:"cached_adapters"`
	ResolvedCommands     int   `json:"resolved_commands" toml:"resolved_commands"`
}

// StatsResponse is sent in response to a stats request.
type StatsResponse struct {
	Stats Stats  `json:"stats"`
	Error *Error `json:"error,omitempty"`
}

// ConfigRequest is sent from the shell client for configuration operations.
type ConfigRequest struct {
	// Action is the config operation: "get", "reload", "defaults", or "validate".
	Action string `json:"action"`
}

// ConfigResponse is sent from the daemon in response to a ConfigRequest.
type ConfigResponse struct {
	// Config is the current configuration (for "get", "reload", and "defaults" actions).
	Config *Config `json:"config,omitempty"`
	// Warnings contains configuration warnings (for "validate" action).
	Warnings []string `json:"warnings,omitempty"`
	// Error is set when the operation fails.
	Error *Error `json:"error,omitempty"`
}
