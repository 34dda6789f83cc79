package ldns

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestRequestDedup(t *testing.T) {
	var ci ClientInfo
	r := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			time.Sleep(time.Second) // need to slow down to guarantee duplicates
			return new(dns.Msg).SetReply(q), nil
		},
	}

	g := NewRequestDedup("test-dedup", r)

	// Send a batch of queries, with different IDs and spelling of the name
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		q := new(dns.Msg)
		if i%2 == 0 {
			q.SetQuestion("example.com.", dns.TypeA)
		} else {
			q.SetQuestion("EXAMPLE.com.", dns.TypeA)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := g.Resolve(q, ci)
			require.NoError(t, err)
			require.Equal(t, q.Id, a.Id)
		}()
	}
	wg.Wait()

	// Only one request should have hit the resolver
	require.Equal(t, 1, r.HitCount())

	// Nothing is in flight anymore, the next query goes upstream again
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)
	_, err := g.Resolve(q, ci)
	require.NoError(t, err)
	require.Equal(t, 2, r.HitCount())
}

func TestRequestDedupFailure(t *testing.T) {
	r := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			time.Sleep(500 * time.Millisecond)
			return nil, QueryTimeoutError{q}
		},
	}
	g := NewRequestDedup("test-dedup-fail", r)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := new(dns.Msg)
			q.SetQuestion("example.com.", dns.TypeA)
			a, err := g.Resolve(q, ClientInfo{})
			require.Nil(t, a)
			require.ErrorAs(t, err, &QueryTimeoutError{})
		}()
	}
	wg.Wait()
	require.Equal(t, 1, r.HitCount())
}

func TestRequestDedupDistinctQuestions(t *testing.T) {
	r := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			time.Sleep(200 * time.Millisecond)
			return new(dns.Msg).SetReply(q), nil
		},
	}
	g := NewRequestDedup("test-dedup-distinct", r)

	questions := []struct {
		name  string
		qtype uint16
	}{
		{"example.com.", dns.TypeA},
		{"example.com.", dns.TypeAAAA},
		{"example.org.", dns.TypeA},
	}
	var wg sync.WaitGroup
	for _, question := range questions {
		q := new(dns.Msg)
		q.SetQuestion(question.name, question.qtype)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Resolve(q, ClientInfo{})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, len(questions), r.HitCount())
}

func TestRequestDedupPerUpstream(t *testing.T) {
	slow := func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
		time.Sleep(200 * time.Millisecond)
		return nil, errors.New("failed")
	}
	r1 := &TestResolver{ResolveFunc: slow}
	r2 := &TestResolver{ResolveFunc: slow}
	g1 := NewRequestDedup("test-dedup-ns1", r1)
	g2 := NewRequestDedup("test-dedup-ns2", r2)

	// The same question sent to two upstreams is not combined
	var wg sync.WaitGroup
	for _, g := range []Resolver{g1, g2} {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := new(dns.Msg)
			q.SetQuestion("example.com.", dns.TypeA)
			_, err := g.Resolve(q, ClientInfo{})
			require.Error(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, r1.HitCount())
	require.Equal(t, 1, r2.HitCount())
}
