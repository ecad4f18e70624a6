package slide

// Tier is the authorization tier a save request runs under. Owner-tier
// callers (admin, or owner in the editor group) may change every field;
// collaborator-tier callers are restricted to content fields.
type Tier int

const (
	TierOwner Tier = iota
	TierCollaborator
)

// SaveRequest carries the full slide payload of a create or modify call.
// Pointer fields distinguish an absent field from its zero value, so
// clients can round-trip everything a read returned without the engine
// guessing at intent.
type SaveRequest struct {
	ID            *string
	Name          *string
	Index         *int
	Duration      *int
	Markup        *string
	Enabled       *bool
	Sched         *bool
	SchedStart    *int64
	SchedEnd      *int64
	Animation     *int
	QueueName     *string
	Collaborators []string
}

// applyFields copies submitted fields onto the slide. Queue membership and
// the collaborator list are silently discarded for collaborator-tier
// callers rather than rejected, so restricted clients can submit the full
// object unfiltered.
func applyFields(s *Slide, req SaveRequest, tier Tier) {
	if tier == TierOwner {
		if req.QueueName != nil {
			s.QueueName = *req.QueueName
		}
		if req.Collaborators != nil {
			s.Collaborators = req.Collaborators
		}
	}

	if req.Name != nil {
		s.Name = *req.Name
	}
	if req.Index != nil {
		s.Index = *req.Index
	}
	if req.Duration != nil {
		s.Duration = *req.Duration
	}
	if req.Markup != nil {
		s.Markup = *req.Markup
	}
	if req.Enabled != nil {
		s.Enabled = *req.Enabled
	}
	if req.Sched != nil {
		s.Sched = *req.Sched
	}
	if req.SchedStart != nil {
		s.SchedStart = *req.SchedStart
	}
	if req.SchedEnd != nil {
		s.SchedEnd = *req.SchedEnd
	}
	if req.Animation != nil {
		s.Animation = *req.Animation
	}
}
