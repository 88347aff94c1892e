// Package hostel is the occupancy and billing core: the room allocator,
// the ledger, and the complaint tracker.
//
// Each service is built once at startup with its storage and logger and
// shared by every request. Callers pass a types.Caller describing who is
// asking; the services check roles, validate amounts, and delegate every
// multi-row change to a single storage transaction.
package hostel

import (
	"io"
	"log/slog"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/storage"
)

// Service bundles the three core components.
type Service struct {
	Allocator  *Allocator
	Ledger     *Ledger
	Complaints *Complaints
}

// Option customises the services built by New.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New wires all three services to the same storage and logger.
func New(store storage.Storage, log *slog.Logger, opts ...Option) *Service {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		Allocator:  &Allocator{store: store, log: log.With(slog.String("component", "allocator"))},
		Ledger:     &Ledger{store: store, log: log.With(slog.String("component", "ledger")), now: o.now},
		Complaints: &Complaints{store: store, log: log.With(slog.String("component", "complaints")), now: o.now},
	}
}
