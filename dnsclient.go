package ldns

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DNSClient sends queries to a nameserver over UDP, TCP or TLS. Every query uses
// a new connection that is closed once the response was read. Stream transports
// frame messages with a 2-byte length prefix.
type DNSClient struct {
	id       string
	endpoint string
	net      string
	client   *dns.Client
	opt      DNSClientOptions
	metrics  *ListenerMetrics
}

var _ Resolver = &DNSClient{}

// DNSClientOptions contains options used by the DNS client.
type DNSClientOptions struct {
	// Deadline for dialing, sending and receiving on the connection. Defaults
	// to DefaultQueryTimeout.
	QueryTimeout time.Duration

	// TLS configuration used with the "tcp-tls" network.
	TLSConfig *tls.Config
}

// NewDNSClient returns a new instance of DNSClient for the given network, one
// of "udp", "tcp" or "tcp-tls".
func NewDNSClient(id, endpoint, network string, opt DNSClientOptions) (*DNSClient, error) {
	if err := validEndpoint(endpoint); err != nil {
		return nil, err
	}
	switch network {
	case "udp", "tcp", "tcp-tls":
	default:
		return nil, fmt.Errorf("unsupported network '%s'", network)
	}
	if opt.QueryTimeout == 0 {
		opt.QueryTimeout = DefaultQueryTimeout
	}
	if network == "tcp-tls" {
		if opt.TLSConfig == nil {
			opt.TLSConfig = new(tls.Config)
		}
		opt.TLSConfig = opt.TLSConfig.Clone()
		if opt.TLSConfig.ServerName == "" {
			opt.TLSConfig.ServerName, _, _ = net.SplitHostPort(endpoint)
		}
	}
	return &DNSClient{
		id:       id,
		endpoint: endpoint,
		net:      network,
		client: &dns.Client{
			Net:       network,
			TLSConfig: opt.TLSConfig,
			Timeout:   opt.QueryTimeout,
		},
		opt:     opt,
		metrics: NewListenerMetrics("client", id),
	}, nil
}

// Resolve a DNS query.
func (d *DNSClient) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	logger(d.id, q, ci).WithFields(logrus.Fields{
		"resolver": d.endpoint,
		"protocol": d.net,
	}).Debug("querying upstream resolver")
	d.metrics.query.Add(1)

	b, err := SerializeMessage(q)
	if err != nil {
		d.metrics.err.Add("pack", 1)
		return nil, errors.Wrapf(err, "failed to encode query for '%s'", qName(q))
	}

	conn, err := d.client.Dial(d.endpoint)
	if err != nil {
		d.metrics.err.Add("dial", 1)
		return nil, d.transportError(q, err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(d.opt.QueryTimeout)); err != nil {
		return nil, d.transportError(q, err)
	}

	if _, err := conn.Write(b); err != nil {
		d.metrics.err.Add("write", 1)
		return nil, d.transportError(q, err)
	}
	buf := make([]byte, dns.MaxMsgSize)
	n, err := conn.Read(buf)
	if err != nil {
		d.metrics.err.Add("read", 1)
		return nil, d.transportError(q, err)
	}

	a, err := ParseMessage(buf[:n])
	if err != nil {
		d.metrics.err.Add("unpack", 1)
		return nil, ProtocolError{fmt.Sprintf("invalid response from %s: %s", d.endpoint, err)}
	}
	if a.Id != q.Id {
		d.metrics.err.Add("id", 1)
		return nil, ProtocolError{fmt.Sprintf("response id %d from %s does not match query id %d", a.Id, d.endpoint, q.Id)}
	}
	d.metrics.response.Add(rCode(a), 1)
	return a, nil
}

func (d *DNSClient) String() string {
	return d.id
}

// Deadline errors on the socket are reported like any other timeout, everything
// else is a connection failure.
func (d *DNSClient) transportError(q *dns.Msg, err error) error {
	if isNetTimeout(err) {
		return QueryTimeoutError{q}
	}
	return ConnectionError{Endpoint: d.endpoint, Err: err}
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
