// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

// SchemaVersion is the current event schema version. Increment it when
// making breaking changes to any event payload.
const SchemaVersion = 1

// NATS subjects. Everything lives under the "palate." root so a single
// JetStream stream captures the full event flow.
const (
	// SubjectRoot is the wildcard the stream binds to.
	SubjectRoot = "palate.>"

	// TopicOrderPlaced carries confirmed orders into the interaction log.
	TopicOrderPlaced = "palate.order.placed"

	// TopicRatingSubmitted carries explicit item ratings.
	TopicRatingSubmitted = "palate.rating.submitted"

	// TopicChatRequest carries inbound chat turns.
	TopicChatRequest = "palate.chat.request"

	// TopicAdminRebuild is the request-reply subject that triggers a
	// model rebuild and answers with a RebuildResponse.
	TopicAdminRebuild = "palate.admin.rebuild"

	// TopicDeadLetter parks events that exhausted their retries.
	TopicDeadLetter = "palate.dlq"

	chatResponsePrefix = "palate.chat.response."
)

// ChatResponseTopic returns the per-session reply subject.
func ChatResponseTopic(sessionID string) string {
	return chatResponsePrefix + sessionID
}

// Event is implemented by every payload that travels the bus. The ID is
// the deduplication key: it rides the NATS Msg-Id header so both the
// JetStream duplicate window and the consumer's seen-set key on it.
type Event interface {
	ID() string
	Topic() string
	Validate() error
}

// ValidationError reports a missing or malformed event field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// OrderEvent records one confirmed order line. It is the strongest
// implicit-feedback signal the engine consumes; when a session ID is
// attached the order also counts as that conversation's selection.
type OrderEvent struct {
	SchemaVersion int    `json:"schema_version,omitempty"`
	EventID       string `json:"event_id"`
	UserID        string `json:"user_id"`
	ItemID        string `json:"item_id"`
	Quantity      int    `json:"quantity"`

	// SessionID links the order back to the conversation that produced
	// it, if any.
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEvent creates an order event with a unique ID and timestamp.
func NewOrderEvent(userID, itemID string, quantity int) *OrderEvent {
	if quantity < 1 {
		quantity = 1
	}
	return &OrderEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		ItemID:        itemID,
		Quantity:      quantity,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *OrderEvent) ID() string    { return e.EventID }
func (e *OrderEvent) Topic() string { return TopicOrderPlaced }

// Validate checks required fields.
func (e *OrderEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	if e.ItemID == "" {
		return &ValidationError{Field: "item_id", Message: "required"}
	}
	if e.Quantity < 1 {
		return &ValidationError{Field: "quantity", Message: "must be at least 1"}
	}
	return nil
}

// Interaction converts the event to its stored form.
func (e *OrderEvent) Interaction() *models.Interaction {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &models.Interaction{
		UserID:    e.UserID,
		ItemID:    e.ItemID,
		Quantity:  e.Quantity,
		OrderedAt: ts,
	}
}

// RatingEvent records an explicit 1-5 star rating. Ratings upsert: a
// later event for the same (user, item) pair replaces the earlier one.
type RatingEvent struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	ItemID        string    `json:"item_id"`
	Value         int       `json:"value"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewRatingEvent creates a rating event with a unique ID and timestamp.
func NewRatingEvent(userID, itemID string, value int) *RatingEvent {
	return &RatingEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		ItemID:        itemID,
		Value:         value,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *RatingEvent) ID() string    { return e.EventID }
func (e *RatingEvent) Topic() string { return TopicRatingSubmitted }

// Validate checks required fields and the rating range.
func (e *RatingEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	if e.ItemID == "" {
		return &ValidationError{Field: "item_id", Message: "required"}
	}
	if e.Value < 1 || e.Value > 5 {
		return &ValidationError{Field: "value", Message: "must be between 1 and 5"}
	}
	return nil
}

// Rating converts the event to its stored form.
func (e *RatingEvent) Rating() *models.Rating {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &models.Rating{
		UserID:    e.UserID,
		ItemID:    e.ItemID,
		Value:     e.Value,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// ChatRequest is one inbound conversation turn. An empty message is
// valid and answered as a general query.
type ChatRequest struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewChatRequest creates a chat request with a unique ID and timestamp.
func NewChatRequest(sessionID, userID, message string) *ChatRequest {
	return &ChatRequest{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		SessionID:     sessionID,
		UserID:        userID,
		Message:       message,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *ChatRequest) ID() string    { return e.EventID }
func (e *ChatRequest) Topic() string { return TopicChatRequest }

// Validate checks required fields.
func (e *ChatRequest) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.SessionID == "" {
		return &ValidationError{Field: "session_id", Message: "required"}
	}
	if e.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	return nil
}

// ChatResponse is the reply to one chat turn, published on the
// session's own response subject. RequestID echoes the ChatRequest
// event ID so clients can pair replies with their turns.
type ChatResponse struct {
	SchemaVersion int    `json:"schema_version,omitempty"`
	EventID       string `json:"event_id"`
	RequestID     string `json:"request_id"`
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id"`

	Intent      string `json:"intent"`
	Language    string `json:"language"`
	Text        string `json:"text"`
	LoopBreaker bool   `json:"loop_breaker,omitempty"`

	Conflicts    []models.Conflict           `json:"conflicts,omitempty"`
	ReorderItems []recommend.RecommendedItem `json:"reorder_items,omitempty"`
	NewItems     []recommend.RecommendedItem `json:"new_items,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// NewChatResponse creates a reply skeleton for a request, with a unique
// ID and timestamp. The caller fills the pipeline output fields.
func NewChatResponse(req *ChatRequest) *ChatResponse {
	return &ChatResponse{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		RequestID:     req.EventID,
		SessionID:     req.SessionID,
		UserID:        req.UserID,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *ChatResponse) ID() string    { return e.EventID }
func (e *ChatResponse) Topic() string { return ChatResponseTopic(e.SessionID) }

// Validate checks required fields.
func (e *ChatResponse) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.RequestID == "" {
		return &ValidationError{Field: "request_id", Message: "required"}
	}
	if e.SessionID == "" {
		return &ValidationError{Field: "session_id", Message: "required"}
	}
	if e.Text == "" {
		return &ValidationError{Field: "text", Message: "required"}
	}
	return nil
}

// RebuildResponse is the reply on the administrative rebuild subject.
// It is request-reply payload, not a stream event.
type RebuildResponse struct {
	Status    string `json:"status"`
	UserCount int    `json:"user_count"`
	ItemCount int    `json:"item_count"`
	Error     string `json:"error,omitempty"`
}
