package recommend

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// SharedRefresher collapses concurrent Refresh calls into one call of the
// wrapped Refresher. Callers that arrive while a refresh is running wait for
// it and share its result.
type SharedRefresher struct {
	next  Refresher
	group singleflight.Group
}

// NewSharedRefresher wraps next.
func NewSharedRefresher(next Refresher) *SharedRefresher {
	return &SharedRefresher{next: next}
}

// Refresh runs the wrapped refresh unless one is already in flight. The
// in-flight refresh is not cancelled when a waiting caller's ctx is.
func (s *SharedRefresher) Refresh(ctx context.Context) error {
	ch := s.group.DoChan("refresh", func() (any, error) {
		return nil, s.next.Refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
