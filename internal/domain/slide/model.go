package slide

import "time"

// Slide is the editable unit of a signage queue: one screenful of markup
// with presentation and scheduling metadata. Its Index is an ordering hint
// only; the committed position is assigned by queue reconciliation.
type Slide struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Owner         string    `json:"owner"`
	QueueName     string    `json:"queue_name"`
	Index         int       `json:"index"`
	Duration      int       `json:"duration"`
	Markup        string    `json:"markup"`
	Enabled       bool      `json:"enabled"`
	Sched         bool      `json:"sched"`
	SchedStart    int64     `json:"sched_t_s"`
	SchedEnd      int64     `json:"sched_t_e"`
	Animation     int       `json:"animation"`
	Collaborators []string  `json:"collaborators"`
	Lock          *Lock     `json:"lock,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ModifiedAt    time.Time `json:"modified_at"`
}

// IsCollaborator reports whether the named user is on the slide's
// collaborator list.
func (s *Slide) IsCollaborator(user string) bool {
	for _, c := range s.Collaborators {
		if c == user {
			return true
		}
	}
	return false
}
