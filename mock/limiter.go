package mock

import (
	"context"

	"github.com/kalisz/bookdl"
)

var _ bookdl.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of bookdl.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
