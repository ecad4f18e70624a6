package activity

import "time"

// Type represents the type of activity event
type Type string

const (
	TypeSlideCreated Type = "slide_created"
	TypeSlideUpdated Type = "slide_updated"
	TypeSlideRemoved Type = "slide_removed"
	TypeLockAcquired Type = "lock_acquired"
	TypeLockReleased Type = "lock_released"
	TypeQueueRemoved Type = "queue_removed"
	TypeQuotaDenied  Type = "quota_denied"
)

// Entry represents an event in the activity log
type Entry struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	SlideID   *string   `json:"slide_id,omitempty"`
	QueueName *string   `json:"queue_name,omitempty"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
