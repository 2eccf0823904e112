package model

import (
	"time"

	"github.com/google/uuid"
)

type StudyGroup struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Subject      string      `json:"subject"`
	Description  string      `json:"description"`
	Date         string      `json:"date"`
	Time         string      `json:"time"`
	Duration     int         `json:"duration"` // minutes
	CreatorID    uuid.UUID   `json:"creator"`
	Participants []uuid.UUID `json:"participants"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// HasOtherParticipants reports whether anyone besides the creator joined.
func (g *StudyGroup) HasOtherParticipants() bool {
	for _, p := range g.Participants {
		if p != g.CreatorID {
			return true
		}
	}
	return false
}
