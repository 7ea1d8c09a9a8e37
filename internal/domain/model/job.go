package model

import (
	"time"

	"meeting-classifier/internal/domain"
)

// ClassificationJob is the envelope carried by the broker. It holds only the meeting id;
// the worker re-reads the meeting so the latest transcription is classified.
type ClassificationJob struct {
	MeetingID int64 `json:"meetingId"`
}

func NewClassificationJob(meetingID int64) (ClassificationJob, error) {
	if meetingID <= 0 {
		return ClassificationJob{}, domain.ErrInvalidArgument
	}
	return ClassificationJob{MeetingID: meetingID}, nil
}

// JobOptions is the redelivery policy attached to a job at submit time.
type JobOptions struct {
	MaxAttempts int           `json:"maxAttempts"`
	BackoffBase time.Duration `json:"backoffBase"`
}

// DefaultJobOptions: 3 attempts, exponential backoff starting at 5s.
func DefaultJobOptions() JobOptions {
	return JobOptions{MaxAttempts: 3, BackoffBase: 5 * time.Second}
}

// Delivery is one reservation of a job by a worker. Attempt starts at 1.
type Delivery struct {
	ID         string            `json:"id"`
	Job        ClassificationJob `json:"job"`
	Attempt    int               `json:"attempt"`
	Options    JobOptions        `json:"options"`
	EnqueuedAt time.Time         `json:"enqueuedAt"`
	// Abandoned is set when the last allowed attempt lost its lease without being settled.
	// Such a delivery is dead-lettered, not processed.
	Abandoned bool `json:"abandoned,omitempty"`
}

// Exhausted reports whether this delivery is the last one the policy allows.
func (d Delivery) Exhausted() bool {
	return d.Attempt >= d.Options.MaxAttempts
}

// BackoffDelay is the wait before the next attempt: base doubled per attempt already made.
func (d Delivery) BackoffDelay() time.Duration {
	if d.Attempt < 1 || d.Options.BackoffBase <= 0 {
		return d.Options.BackoffBase
	}
	shift := d.Attempt - 1
	if shift > 16 {
		shift = 16
	}
	return d.Options.BackoffBase << uint(shift)
}

// FailedJob is the dead-letter record kept for a job that will never be retried again.
type FailedJob struct {
	ID        int64     `json:"id"`
	JobID     string    `json:"jobId"`
	MeetingID int64     `json:"meetingId"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError"`
	Permanent bool      `json:"permanent"`
	FailedAt  time.Time `json:"failedAt"`
}
