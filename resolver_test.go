package ldns

import (
	"net"
	"sync"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// TestResolver is a configurable resolver used in tests. Without ResolveFunc it
// answers every query with an empty response.
type TestResolver struct {
	ResolveFunc func(*dns.Msg, ClientInfo) (*dns.Msg, error)

	mu       sync.Mutex
	hitCount int
	queries  []*dns.Msg
}

func (r *TestResolver) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	r.mu.Lock()
	r.hitCount++
	r.queries = append(r.queries, q)
	r.mu.Unlock()
	if r.ResolveFunc != nil {
		return r.ResolveFunc(q, ci)
	}
	return new(dns.Msg).SetReply(q), nil
}

func (r *TestResolver) String() string {
	return "TestResolver()"
}

func (r *TestResolver) HitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hitCount
}

func (r *TestResolver) Queries() []*dns.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*dns.Msg(nil), r.queries...)
}

// Starts a DNS server on a random local port and returns its address.
func startTestServer(t *testing.T, network string, h dns.HandlerFunc) string {
	t.Helper()
	srv := &dns.Server{Handler: h}
	var addr string
	switch network {
	case "udp":
		pc, err := net.ListenPacket("udp", "127.0.0.1:0")
		require.NoError(t, err)
		srv.PacketConn = pc
		addr = pc.LocalAddr().String()
	case "tcp":
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		srv.Listener = ln
		addr = ln.Addr().String()
	default:
		t.Fatalf("unsupported network %s", network)
	}
	started := make(chan struct{})
	srv.NotifyStartedFunc = func() { close(started) }
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return addr
}

// Returns a handler that answers A queries with the given address.
func answerA(ip string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, q *dns.Msg) {
		a := new(dns.Msg)
		a.SetReply(q)
		a.Answer = []dns.RR{&dns.A{
			Hdr: dns.RR_Header{Name: q.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
			A:   net.ParseIP(ip).To4(),
		}}
		_ = w.WriteMsg(a)
	}
}

func TestDispatchPlainResolver(t *testing.T) {
	r := new(TestResolver)
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)

	res := <-Dispatch(r, q, ClientInfo{})
	require.NoError(t, res.Err)
	require.Equal(t, q.Id, res.Answer.Id)
	require.Equal(t, 1, r.HitCount())
}
