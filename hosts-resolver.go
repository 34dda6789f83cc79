package ldns

import (
	"github.com/miekg/dns"
)

// HostsResolver answers queries from a hosts table and passes everything
// the table can't answer to the next resolver.
type HostsResolver struct {
	id       string
	db       *HostsDB
	resolver Resolver
}

var (
	_ Resolver   = &HostsResolver{}
	_ Dispatcher = &HostsResolver{}
)

// NewHostsResolver returns a new instance of a hosts resolver.
func NewHostsResolver(id string, db *HostsDB, resolver Resolver) *HostsResolver {
	return &HostsResolver{
		id:       id,
		db:       db,
		resolver: resolver,
	}
}

// Resolve a DNS query from the hosts table or with the next resolver.
func (r *HostsResolver) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	if a := r.lookup(q, ci); a != nil {
		return a, nil
	}
	return r.resolver.Resolve(q, ci)
}

// Dispatch answers from the hosts table immediately or dispatches the query to
// the next resolver.
func (r *HostsResolver) Dispatch(q *dns.Msg, ci ClientInfo) <-chan Result {
	if a := r.lookup(q, ci); a != nil {
		return resolved(a, nil)
	}
	return Dispatch(r.resolver, q, ci)
}

func (r *HostsResolver) String() string {
	return r.id
}

func (r *HostsResolver) lookup(q *dns.Msg, ci ClientInfo) *dns.Msg {
	if len(q.Question) == 0 {
		return nil
	}
	answer, ok := r.db.Lookup(q.Question[0])
	if !ok {
		return nil
	}
	logger(r.id, q, ci).WithField("records", len(answer)).Debug("answering from hosts table")
	return answerWith(q, answer)
}
