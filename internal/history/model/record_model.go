package model

import (
	"time"

	"github.com/google/uuid"
)

// Record is one stable emission appended to a session's transcript.
type Record struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"sessionId"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewRecord(sessionID, label string, confidence float64, createdAt time.Time) Record {
	return Record{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Label:      label,
		Confidence: confidence,
		CreatedAt:  createdAt,
	}
}
