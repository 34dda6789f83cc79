package ldns

import (
	"time"

	"github.com/miekg/dns"
)

// DefaultQueryTimeout is the time allowed for a single upstream attempt.
const DefaultQueryTimeout = 5 * time.Second

// Timeout bounds the time a resolver can take to answer. Queries that take
// longer fail with QueryTimeoutError. The query keeps running in the background
// but its result is discarded.
type Timeout struct {
	id       string
	resolver Resolver
	opt      TimeoutOptions
}

var _ Resolver = &Timeout{}

type TimeoutOptions struct {
	// Defaults to DefaultQueryTimeout.
	Timeout time.Duration
}

// NewTimeout returns a new instance of a timeout wrapper.
func NewTimeout(id string, resolver Resolver, opt TimeoutOptions) *Timeout {
	if opt.Timeout == 0 {
		opt.Timeout = DefaultQueryTimeout
	}
	return &Timeout{
		id:       id,
		resolver: resolver,
		opt:      opt,
	}
}

// Resolve a DNS query with the wrapped resolver or fail once the timeout elapses.
func (r *Timeout) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	done := resolveAsync(r.resolver, q, ci)

	timer := time.NewTimer(r.opt.Timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.Answer, res.Err
	case <-timer.C:
		logger(r.id, q, ci).WithField("timeout", r.opt.Timeout).Debug("query timed out")
		return nil, QueryTimeoutError{q}
	}
}

func (r *Timeout) String() string {
	return r.id
}
