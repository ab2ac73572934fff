package auditinterceptor

import (
	"time"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/internal/adapters"
)

func NewWithAdapter(db adapters.DBAdapter, options ...Option) (*Auditor, error) {
	return newAuditor(db, options)
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Auditor) error {
		a.now = now
		return nil
	}
}
