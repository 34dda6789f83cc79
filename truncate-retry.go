package ldns

import (
	"expvar"

	"github.com/miekg/dns"
)

// TruncateRetry sends queries to a datagram resolver and repeats them on a
// stream resolver whenever the datagram answer has the TC bit set. Failures of
// the datagram resolver are returned without trying the stream.
type TruncateRetry struct {
	id       string
	datagram Resolver
	stream   Resolver
	fallback *expvar.Int
}

var _ Resolver = &TruncateRetry{}

// NewTruncateRetry returns a resolver that falls back to stream for truncated
// answers from datagram.
func NewTruncateRetry(id string, datagram, stream Resolver) *TruncateRetry {
	return &TruncateRetry{
		id:       id,
		datagram: datagram,
		stream:   stream,
		fallback: getVarInt("upstream", id, "tcp-fallback"),
	}
}

// Resolve a DNS query.
func (r *TruncateRetry) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	a, err := r.datagram.Resolve(q, ci)
	if err != nil || a == nil || !a.Truncated {
		return a, err
	}
	logger(r.id, q, ci).WithField("resolver", r.stream).Debug("truncated response, retrying over stream")
	r.fallback.Add(1)
	return r.stream.Resolve(q, ci)
}

func (r *TruncateRetry) String() string {
	return r.id
}
