package ldns

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestHostsResolverHit(t *testing.T) {
	db, err := NewHostsDB(NewStaticLoader([]string{"10.0.0.5 example.local"}))
	require.NoError(t, err)
	upstream := new(TestResolver)
	r := NewHostsResolver("test-hosts", db, upstream)

	q := new(dns.Msg)
	q.SetQuestion("example.local.", dns.TypeA)
	res := <-Dispatch(r, q, ClientInfo{})
	require.NoError(t, res.Err)
	require.Equal(t, q.Id, res.Answer.Id)
	require.True(t, res.Answer.Response)
	require.Equal(t, dns.RcodeSuccess, res.Answer.Rcode)
	require.Len(t, res.Answer.Answer, 1)
	require.Equal(t, "10.0.0.5", res.Answer.Answer[0].(*dns.A).A.String())

	a, err := r.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Len(t, a.Answer, 1)

	// The table answered both, nothing went upstream
	require.Equal(t, 0, upstream.HitCount())
}

func TestHostsResolverMiss(t *testing.T) {
	db, err := NewHostsDB(NewStaticLoader([]string{"10.0.0.5 example.local"}))
	require.NoError(t, err)
	upstream := new(TestResolver)
	r := NewHostsResolver("test-hosts", db, upstream)

	// Known name without an address of the requested family
	q := new(dns.Msg)
	q.SetQuestion("example.local.", dns.TypeAAAA)
	res := <-Dispatch(r, q, ClientInfo{})
	require.NoError(t, res.Err)

	q = new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)
	_, err = r.Resolve(q, ClientInfo{})
	require.NoError(t, err)

	require.Equal(t, 2, upstream.HitCount())
}
