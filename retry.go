package ldns

import (
	"github.com/miekg/dns"
)

// Retry sends a query a second time, with a new ID, if the first attempt timed
// out. Other failures are returned as they are, as is a second timeout.
type Retry struct {
	id       string
	resolver Resolver
}

var _ Resolver = &Retry{}

// NewRetry returns a new instance of a retrying resolver.
func NewRetry(id string, resolver Resolver) *Retry {
	return &Retry{id: id, resolver: resolver}
}

// Resolve a DNS query, retrying once on timeout.
func (r *Retry) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	a, err := r.resolver.Resolve(q, ci)
	if !isTimeout(err) {
		return a, err
	}

	retry := q.Copy()
	for retry.Id == q.Id {
		retry.Id = dns.Id()
	}
	logger(r.id, q, ci).WithField("retry-id", retry.Id).Debug("query timed out, retrying")

	a, err = r.resolver.Resolve(retry, ci)
	if a != nil {
		a.Id = q.Id
	}
	return a, err
}

func (r *Retry) String() string {
	return r.id
}
