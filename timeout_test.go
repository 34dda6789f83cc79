package ldns

import (
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestTimeout(t *testing.T) {
	slow := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			time.Sleep(500 * time.Millisecond)
			return new(dns.Msg).SetReply(q), nil
		},
	}
	r := NewTimeout("test-timeout", slow, TimeoutOptions{Timeout: 50 * time.Millisecond})
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)

	start := time.Now()
	_, err := r.Resolve(q, ClientInfo{})
	require.ErrorAs(t, err, &QueryTimeoutError{})
	require.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestTimeoutPassThrough(t *testing.T) {
	r := NewTimeout("test-timeout", new(TestResolver), TimeoutOptions{Timeout: time.Second})
	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)

	a, err := r.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, q.Id, a.Id)
}
