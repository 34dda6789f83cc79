package ldns

import (
	"errors"
	"sync"

	"github.com/miekg/dns"
)

// RoundRobin is a group of resolvers that will receive equal amounts of queries.
// Every query goes to the next resolver in the list, regardless of how earlier
// queries went. Failed queries are not retried.
type RoundRobin struct {
	id        string
	resolvers []Resolver
	mu        sync.Mutex
	current   int
}

var (
	_ Resolver   = &RoundRobin{}
	_ Dispatcher = &RoundRobin{}
)

// NewRoundRobin returns a new instance of a round-robin resolver group.
func NewRoundRobin(id string, resolvers ...Resolver) *RoundRobin {
	return &RoundRobin{id: id, resolvers: resolvers}
}

// Resolve a DNS query using a round-robin resolver group.
func (r *RoundRobin) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	resolver := r.next()
	if resolver == nil {
		return nil, errors.New("no resolvers in group")
	}
	logger(r.id, q, ci).WithField("resolver", resolver).Debug("forwarding query to resolver")
	return resolver.Resolve(q, ci)
}

// Dispatch picks the next resolver and resolves the query with it in the background.
func (r *RoundRobin) Dispatch(q *dns.Msg, ci ClientInfo) <-chan Result {
	resolver := r.next()
	if resolver == nil {
		return resolved(nil, errors.New("no resolvers in group"))
	}
	logger(r.id, q, ci).WithField("resolver", resolver).Debug("forwarding query to resolver")
	return resolveAsync(resolver, q, ci)
}

func (r *RoundRobin) String() string {
	return r.id
}

// Returns the resolver at the cursor and advances it.
func (r *RoundRobin) next() Resolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.resolvers) == 0 {
		return nil
	}
	resolver := r.resolvers[r.current]
	r.current = (r.current + 1) % len(r.resolvers)
	return resolver
}
