package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTutor
}

// GradeLevels lists the accepted values of User.GradeLevel.
var GradeLevels = []string{
	"H.S-Freshman",
	"H.S-Sophomore",
	"H.S-Junior",
	"H.S-Senior",
	"Uni-Freshman",
	"Uni-Sophomore",
	"Uni-Junior",
	"Uni-Senior",
}

func ValidGradeLevel(level string) bool {
	for _, l := range GradeLevels {
		if l == level {
			return true
		}
	}
	return false
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	Subjects       []string  `json:"subjects"`
	GradeLevel     string    `json:"gradeLevel"`
	TelegramChatID *int64    `json:"telegramChatId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Derived from the availability and study group tables, not stored on the row.
	TutoringAvailability []uuid.UUID `json:"tutoringAvailability,omitempty"`
	JoinedStudyGroups    []uuid.UUID `json:"joinedStudyGroups"`
}

func (u *User) IsTutor() bool {
	return u.Role == RoleTutor
}

// TutorProfile is the public part of a tutor shown next to their slots.
type TutorProfile struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Subjects   []string  `json:"subjects"`
	GradeLevel string    `json:"gradeLevel"`
}

func (u *User) PublicProfile() *TutorProfile {
	return &TutorProfile{
		ID:         u.ID,
		Name:       u.Name,
		Subjects:   u.Subjects,
		GradeLevel: u.GradeLevel,
	}
}
