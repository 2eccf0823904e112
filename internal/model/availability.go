package model

import (
	"time"

	"github.com/google/uuid"
)

// DayLayout is the format of AvailabilitySlot.Day and StudyGroup.Date.
const DayLayout = "2006-01-02"

type AvailabilitySlot struct {
	ID        uuid.UUID `json:"id"`
	TutorID   uuid.UUID `json:"tutor"`
	Day       string    `json:"day"`
	Subject   string    `json:"subject"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  int       `json:"duration"` // minutes
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Filled only for student-facing listings.
	TutorProfile *TutorProfile `json:"tutorProfile,omitempty"`
}

// DayBounds returns [00:00, next 00:00) in UTC for the slot's calendar day.
func DayBounds(day string) (time.Time, time.Time, error) {
	start, err := time.Parse(DayLayout, day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

// DurationMinutes returns the whole minutes between start and end.
func DurationMinutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}
