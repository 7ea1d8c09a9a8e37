package model

import (
	"strings"
	"time"

	"meeting-classifier/internal/domain"
)

// Meeting is a recorded sales meeting. The classification pipeline only reads it.
type Meeting struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	SalesmanName  string    `json:"salesmanName"`
	Date          time.Time `json:"date"`
	Closed        bool      `json:"closed"`
	Transcription string    `json:"transcription"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewMeeting(name, email, phone, salesman string, date time.Time, closed bool, transcription string) (*Meeting, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(salesman) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if date.IsZero() {
		date = time.Now()
	}
	return &Meeting{
		Name:          name,
		Email:         strings.TrimSpace(email),
		Phone:         strings.TrimSpace(phone),
		SalesmanName:  strings.TrimSpace(salesman),
		Date:          date,
		Closed:        closed,
		Transcription: transcription,
		CreatedAt:     time.Now(),
	}, nil
}

// HasTranscription reports whether there is any text worth classifying.
func (m *Meeting) HasTranscription() bool {
	return m != nil && strings.TrimSpace(m.Transcription) != ""
}
