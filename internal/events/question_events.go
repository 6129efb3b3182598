package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of events the service emits
type EventType string

const (
	EventQuestionCreated EventType = "question.created"
	EventQuestionUpdated EventType = "question.updated"
	EventQuestionDeleted EventType = "question.deleted"
	EventQuestionsBulk   EventType = "question.bulk_imported"
	EventStatsRecomputed EventType = "stats.recomputed"
)

const (
	eventSource  = "question-bank-service"
	eventVersion = "1.0"
)

// Event is the envelope shared by every published event
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Scope     string         `json:"scope"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Version   string         `json:"version"`
	Data      interface{}    `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type QuestionChangedEvent struct {
	QuestionID string   `json:"questionId"`
	Subject    string   `json:"subject"`
	Grade      string   `json:"grade"`
	Type       string   `json:"type"`
	ActorID    string   `json:"actorId"`
	ActorRole  string   `json:"actorRole"`
	Changed    []string `json:"changed,omitempty"`
}

type QuestionsImportedEvent struct {
	QuestionIDs []string `json:"questionIds"`
	ActorID     string   `json:"actorId"`
	FileName    string   `json:"fileName"`
}

type StatsRecomputedEvent struct {
	TotalQuestions int       `json:"totalQuestions"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// NewEvent builds an envelope with a fresh ID and the current time
func NewEvent(eventType EventType, scopeKey string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Scope:     scopeKey,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}
