package slide

import (
	"time"

	"github.com/mvartia/marquee/internal/auth"
)

// Lock is an advisory, time-bounded claim granting one session exclusive
// mutation rights over a slide. Expiry is evaluated lazily on every check,
// so an abandoned lock heals itself without a background sweeper.
type Lock struct {
	Session    string    `json:"session"`
	AcquiredAt time.Time `json:"acquired_at"`
	TTLSeconds int64     `json:"ttl"`
}

// Expired reports whether the lock's TTL has elapsed at the given instant.
func (l *Lock) Expired(now time.Time) bool {
	return now.Sub(l.AcquiredAt) > time.Duration(l.TTLSeconds)*time.Second
}

// OwnedBy reports whether the lock is held by the given session.
func (l *Lock) OwnedBy(sess auth.Session) bool {
	return l.Session == sess.ID
}

// Acquire claims the slide's lock for a session. It succeeds when the
// slide is unlocked, the existing lock has expired, or the session already
// holds it (refreshing the TTL in that case). A live lock held by another
// session fails with ErrLockConflict.
func Acquire(s *Slide, sess auth.Session, ttl time.Duration, now time.Time) error {
	if s.Lock != nil && !s.Lock.Expired(now) && !s.Lock.OwnedBy(sess) {
		return ErrLockConflict
	}
	s.Lock = &Lock{
		Session:    sess.ID,
		AcquiredAt: now,
		TTLSeconds: int64(ttl / time.Second),
	}
	return nil
}

// EnsureLocked verifies the mutation precondition: the slide must carry a
// lock, and that lock must either belong to the session or be expired. An
// expired lock held by anyone is treated as absent for this check but is
// not reacquired; sessions that keep editing must call Acquire again.
func EnsureLocked(s *Slide, sess auth.Session, now time.Time) error {
	if s.Lock == nil {
		return ErrNotLocked
	}
	if !s.Lock.Expired(now) && !s.Lock.OwnedBy(sess) {
		return ErrLockedByOther
	}
	return nil
}

// Release clears the slide's lock. Only the holding session may release a
// live lock; anyone may clear an expired one. Releasing an unlocked slide
// is a no-op.
func Release(s *Slide, sess auth.Session, now time.Time) error {
	if s.Lock == nil {
		return nil
	}
	if !s.Lock.Expired(now) && !s.Lock.OwnedBy(sess) {
		return ErrLockConflict
	}
	s.Lock = nil
	return nil
}
