package ldns

import (
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// Resolver is an interface to resolve DNS queries. Queries passed to a resolver
// carry exactly one question.
type Resolver interface {
	Resolve(*dns.Msg, ClientInfo) (*dns.Msg, error)
	fmt.Stringer
}

// Listener accepts queries from clients until it is stopped.
type Listener interface {
	Start() error
	Stop() error
	fmt.Stringer
}

// ClientInfo identifies where a query came from.
type ClientInfo struct {
	SourceIP net.IP
	Listener string
}

// Result holds the outcome of a query that was resolved in the background.
type Result struct {
	Answer *dns.Msg
	Err    error
}

// Dispatcher is implemented by resolvers that can pick the upstream for a query
// before returning. Only the exchange with the upstream runs in the background,
// so the order of Dispatch calls decides which upstream gets which query.
type Dispatcher interface {
	Dispatch(*dns.Msg, ClientInfo) <-chan Result
}

// Dispatch starts resolving q with r and returns a channel that receives the
// result. If r is a Dispatcher, its upstream selection happens before Dispatch
// returns.
func Dispatch(r Resolver, q *dns.Msg, ci ClientInfo) <-chan Result {
	if d, ok := r.(Dispatcher); ok {
		return d.Dispatch(q, ci)
	}
	return resolveAsync(r, q, ci)
}

func resolveAsync(r Resolver, q *dns.Msg, ci ClientInfo) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		a, err := r.Resolve(q, ci)
		ch <- Result{a, err}
	}()
	return ch
}

func resolved(a *dns.Msg, err error) <-chan Result {
	ch := make(chan Result, 1)
	ch <- Result{a, err}
	return ch
}
