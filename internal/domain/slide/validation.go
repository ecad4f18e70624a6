package slide

import "time"

// SchedulePolicy decides how a save request with inconsistent scheduling
// flags is handled.
type SchedulePolicy string

const (
	// ScheduleDerive corrects the enabled flag: while a slide is scheduled,
	// enabled is derived from whether now falls inside the window.
	ScheduleDerive SchedulePolicy = "derive"
	// ScheduleReject fails the request when the submitted enabled flag
	// disagrees with the schedule window.
	ScheduleReject SchedulePolicy = "reject"
)

// ValidateSaveInput checks that a creation request carries every required
// field. Modify requests reuse the same check: the protocol requires
// clients to always submit the full object.
func ValidateSaveInput(req SaveRequest) error {
	switch {
	case req.Name == nil,
		req.Index == nil,
		req.Duration == nil,
		req.Markup == nil,
		req.Enabled == nil,
		req.Sched == nil,
		req.SchedStart == nil,
		req.SchedEnd == nil,
		req.Animation == nil,
		req.QueueName == nil,
		req.Collaborators == nil:
		return ErrInvalidInput
	}
	if *req.Duration < 0 {
		return ErrInvalidInput
	}
	if *req.QueueName == "" {
		return ErrInvalidInput
	}
	return nil
}

// CheckSchedule enforces consistency between the sched flag, the schedule
// window and the enabled flag. A window ending before it starts is always
// rejected. For scheduled slides the derive policy recomputes enabled from
// the window; the reject policy fails when the caller's enabled flag does
// not match what the window implies.
func CheckSchedule(s *Slide, policy SchedulePolicy, now time.Time) error {
	if !s.Sched {
		return nil
	}
	if s.SchedEnd < s.SchedStart {
		return ErrInvalidSchedule
	}

	inWindow := now.Unix() >= s.SchedStart && now.Unix() <= s.SchedEnd
	if policy == ScheduleReject {
		if s.Enabled != inWindow {
			return ErrInvalidSchedule
		}
		return nil
	}
	s.Enabled = inWindow
	return nil
}
