package entities

import (
	"fmt"
	"time"
)

type KanbanStatus string

const (
	StatusNew       KanbanStatus = "new"
	StatusTracking  KanbanStatus = "tracking"
	StatusInterview KanbanStatus = "interview"
	StatusOffer     KanbanStatus = "offer"
	StatusArchive   KanbanStatus = "archive"
)

// ParseStatus converts a raw string into a KanbanStatus, rejecting anything
// outside the five known values.
func ParseStatus(s string) (KanbanStatus, error) {
	status := KanbanStatus(s)
	switch status {
	case StatusNew, StatusTracking, StatusInterview, StatusOffer, StatusArchive:
		return status, nil
	}
	return "", fmt.Errorf("unknown kanban status %q", s)
}

// CoerceStatus never fails: unknown values fall back to tracking so that a
// misbehaving classification can't corrupt a job's state.
func CoerceStatus(s string) KanbanStatus {
	status, err := ParseStatus(s)
	if err != nil {
		return StatusTracking
	}
	return status
}

var statusLabels = map[KanbanStatus]string{
	StatusNew:       "Новая",
	StatusTracking:  "Отслеживается",
	StatusInterview: "Собеседование",
	StatusOffer:     "Оффер",
	StatusArchive:   "Архив",
}

// Label returns the human-readable board column name used in history entries.
func (s KanbanStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsActive reports whether the status is one the refresh sweep re-checks.
func (s KanbanStatus) IsActive() bool {
	return s == StatusTracking || s == StatusInterview
}

type InteractionType string

const (
	InteractionStatusChange InteractionType = "status_change"
	InteractionNote         InteractionType = "note"
	InteractionEmailSent    InteractionType = "email_sent"
	InteractionCall         InteractionType = "call"
	InteractionOther        InteractionType = "other"
)

// Interaction is an append-only audit entry on a job's history. Entries are
// never edited or removed.
type Interaction struct {
	ID        int    `gorm:"primaryKey"`
	JobID     string `gorm:"index"`
	Type      InteractionType
	Content   string
	CreatedAt time.Time
}

type Job struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	ProfileID string `gorm:"index"`

	Title            string
	Company          string
	CompanyRating    float64
	CompanyReviews   string
	Salary           string
	Location         string
	Description      string
	Responsibilities []string `gorm:"serializer:json"`
	Requirements     []string `gorm:"serializer:json"`
	Platform         string
	Url              string `gorm:"index"`

	ContactEmail    string
	ContactPhone    string
	ContactTelegram string

	// MatchAnalysis is filled by the ranking step; empty means the job was
	// not recommended (or not ranked yet), not an error.
	MatchAnalysis string

	Status  KanbanStatus
	History []Interaction `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	Notes   string

	CreatedAt time.Time
	UpdatedAt time.Time
}
