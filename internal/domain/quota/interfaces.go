package quota

import "context"

// Repository provides persistence for quota counters. Consume and Release
// must be serialized per (user, kind) pair at the storage boundary so
// concurrent writers cannot interleave a read-modify-write.
type Repository interface {
	Ensure(ctx context.Context, user, kind string, limit int64) error
	Get(ctx context.Context, user, kind string) (*Quota, error)
	Consume(ctx context.Context, user, kind string) error
	Release(ctx context.Context, user, kind string) error
}
