package ldns

import (
	"expvar"
	"strings"
	"sync"

	"github.com/miekg/dns"
)

type dedupKey struct {
	name   string
	qtype  uint16
	qclass uint16
}

type inflightRequest struct {
	answer *dns.Msg
	err    error
	done   chan struct{}
}

// RequestDedup passes individual requests normally. Subsequent
// queries for the same question are being held until the first query
// returns. In that case, all waiting requests are answered with
// the same response or error. Every upstream has its own instance,
// queries for different upstreams are never combined.
type RequestDedup struct {
	id       string
	resolver Resolver
	mu       sync.Mutex
	inflight map[dedupKey]*inflightRequest
	metrics  *dedupMetrics
}

var _ Resolver = &RequestDedup{}

type dedupMetrics struct {
	// Queries that waited for an in-flight query.
	coalesced *expvar.Int
}

// NewRequestDedup returns a new instance of a deduplicating resolver.
func NewRequestDedup(id string, resolver Resolver) *RequestDedup {
	return &RequestDedup{
		id:       id,
		resolver: resolver,
		inflight: make(map[dedupKey]*inflightRequest),
		metrics: &dedupMetrics{
			coalesced: getVarInt("dedup", id, "coalesced"),
		},
	}
}

// Resolve a DNS query, sharing the result with identical concurrent queries.
func (r *RequestDedup) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	question := q.Question[0]
	k := dedupKey{
		name:   strings.ToLower(question.Name),
		qtype:  question.Qtype,
		qclass: question.Qclass,
	}

	r.mu.Lock()
	req, ok := r.inflight[k]
	if !ok {
		req = &inflightRequest{
			done: make(chan struct{}),
		}
		r.inflight[k] = req
	}
	r.mu.Unlock()

	log := logger(r.id, q, ci)
	// If the request is already in flight, wait for that to complete and
	// return the same answer.
	if ok {
		log.Debug("duplicated request, waiting for first answer")
		r.metrics.coalesced.Add(1)
		<-req.done
		return copyAnswer(req.answer, q), req.err
	}
	log.WithField("resolver", r.resolver).Debug("forwarding query to resolver")

	// Not already in flight, make the request
	a, err := r.resolver.Resolve(q, ci)

	// No longer in flight. Remove it before releasing the waiters so that a
	// new query doesn't join a request that has already completed.
	r.mu.Lock()
	delete(r.inflight, k)
	r.mu.Unlock()

	req.answer = a
	req.err = err
	close(req.done) // release other goroutines waiting for the response

	// Return a copy since it could be modified in the chain (i.e. in the listener)
	// but it's also stored for other goroutines which need to copy it.
	return copyAnswer(a, q), err
}

func (r *RequestDedup) String() string {
	return r.id
}

// Returns a copy of a shared answer with the ID of the query it answers.
func copyAnswer(a, q *dns.Msg) *dns.Msg {
	if a == nil {
		return nil
	}
	a = a.Copy()
	a.Id = q.Id
	return a
}
