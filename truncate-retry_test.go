package ldns

import (
	"errors"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestTruncateRetry(t *testing.T) {
	udp := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			a := new(dns.Msg).SetReply(q)
			a.Truncated = true
			return a, nil
		},
	}
	tcp := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			a := new(dns.Msg).SetReply(q)
			a.Answer = []dns.RR{&dns.A{
				Hdr: dns.RR_Header{Name: q.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET},
			}}
			return a, nil
		},
	}
	r := NewTruncateRetry("test-tc", udp, tcp)
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)

	a, err := r.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.False(t, a.Truncated)
	require.Len(t, a.Answer, 1)
	require.Equal(t, 1, udp.HitCount())
	require.Equal(t, 1, tcp.HitCount())
	require.Equal(t, q.Question, tcp.Queries()[0].Question)
}

func TestTruncateRetryNotTruncated(t *testing.T) {
	udp := new(TestResolver)
	tcp := new(TestResolver)
	r := NewTruncateRetry("test-tc", udp, tcp)
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)

	_, err := r.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, 1, udp.HitCount())
	require.Equal(t, 0, tcp.HitCount())
}

func TestTruncateRetryFailure(t *testing.T) {
	udp := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			return nil, errors.New("failed")
		},
	}
	tcp := new(TestResolver)
	r := NewTruncateRetry("test-tc", udp, tcp)
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)

	_, err := r.Resolve(q, ClientInfo{})
	require.Error(t, err)
	require.Equal(t, 0, tcp.HitCount())
}
