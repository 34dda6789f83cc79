package ldns

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jtacoma/uritemplates"
	"github.com/miekg/dns"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
)

// DoHClientOptions contains options used by the DNS-over-HTTP resolver.
type DoHClientOptions struct {
	// Query method, either GET or POST. If empty, POST is used.
	Method string

	// Bounds the whole HTTP exchange. Defaults to DefaultQueryTimeout.
	QueryTimeout time.Duration

	TLSConfig *tls.Config
}

// DoHClient is a DNS-over-HTTP resolver with support fot HTTP/2.
type DoHClient struct {
	id       string
	endpoint string
	template *uritemplates.UriTemplate
	client   *http.Client
	opt      DoHClientOptions
	metrics  *ListenerMetrics
}

var _ Resolver = &DoHClient{}

// NewDoHClient returns a DNS-over-HTTP resolver. The endpoint can be a URI
// template with a "dns" variable for GET requests.
func NewDoHClient(id, endpoint string, opt DoHClientOptions) (*DoHClient, error) {
	template, err := uritemplates.Parse(endpoint)
	if err != nil {
		return nil, err
	}

	if opt.Method == "" {
		opt.Method = "POST"
	}
	if opt.Method != "POST" && opt.Method != "GET" {
		return nil, fmt.Errorf("unsupported method '%s'", opt.Method)
	}
	if opt.QueryTimeout == 0 {
		opt.QueryTimeout = DefaultQueryTimeout
	}

	tr, err := dohTransport(opt)
	if err != nil {
		return nil, err
	}

	return &DoHClient{
		id:       id,
		endpoint: endpoint,
		template: template,
		client: &http.Client{
			Transport: tr,
			Timeout:   opt.QueryTimeout,
		},
		opt:     opt,
		metrics: NewListenerMetrics("client", id),
	}, nil
}

// Resolve a DNS query.
func (d *DoHClient) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	logger(d.id, q, ci).WithFields(logrus.Fields{
		"resolver": d.endpoint,
		"protocol": "doh",
		"method":   d.opt.Method,
	}).Debug("querying upstream resolver")

	d.metrics.query.Add(1)
	b, err := SerializeMessage(q)
	if err != nil {
		d.metrics.err.Add("pack", 1)
		return nil, errors.Wrapf(err, "failed to encode query for '%s'", qName(q))
	}

	var req *http.Request
	switch d.opt.Method {
	case "POST":
		req, err = d.postRequest(b)
	default:
		req, err = d.getRequest(b)
	}
	if err != nil {
		d.metrics.err.Add("http", 1)
		return nil, err
	}
	req.Header.Add("accept", "application/dns-message")

	resp, err := d.client.Do(req)
	if err != nil {
		d.metrics.err.Add(d.opt.Method, 1)
		if isNetTimeout(err) {
			return nil, QueryTimeoutError{q}
		}
		return nil, ConnectionError{Endpoint: d.endpoint, Err: err}
	}
	defer resp.Body.Close()

	a, err := d.responseFromHTTP(resp)
	if err != nil {
		return nil, err
	}
	// The ID is usually 0 over HTTP. Hand back the one from the query.
	a.Id = q.Id
	return a, nil
}

func (d *DoHClient) String() string {
	return d.id
}

func (d *DoHClient) postRequest(b []byte) (*http.Request, error) {
	// The URL could be a template. Process it without values since POST doesn't use variables in the URL.
	u, err := d.template.Expand(map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest("POST", u, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Add("content-type", "application/dns-message")
	return req, nil
}

func (d *DoHClient) getRequest(b []byte) (*http.Request, error) {
	// Encode the query as base64url without padding
	b64 := base64.RawURLEncoding.EncodeToString(b)
	u, err := d.template.Expand(map[string]interface{}{"dns": b64})
	if err != nil {
		return nil, err
	}
	return http.NewRequest("GET", u, nil)
}

// Check the HTTP response status code and parse out the response DNS message.
func (d *DoHClient) responseFromHTTP(resp *http.Response) (*dns.Msg, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.metrics.err.Add(fmt.Sprintf("http%d", resp.StatusCode), 1)
		return nil, ProtocolError{fmt.Sprintf("unexpected status code %d from %s", resp.StatusCode, d.endpoint)}
	}
	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		d.metrics.err.Add("read", 1)
		return nil, ConnectionError{Endpoint: d.endpoint, Err: err}
	}
	a, err := ParseMessage(rb)
	if err != nil {
		d.metrics.err.Add("unpack", 1)
		return nil, ProtocolError{fmt.Sprintf("invalid response from %s: %s", d.endpoint, err)}
	}
	d.metrics.response.Add(rCode(a), 1)
	return a, nil
}

func dohTransport(opt DoHClientOptions) (http.RoundTripper, error) {
	if opt.TLSConfig == nil {
		opt.TLSConfig = new(tls.Config)
	}
	// ConfigureTransport adds ALPN protocols to the config, don't change the caller's.
	opt.TLSConfig = opt.TLSConfig.Clone()
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSClientConfig:       opt.TLSConfig,
		DisableCompression:    true,
		ResponseHeaderTimeout: opt.QueryTimeout,
		IdleConnTimeout:       30 * time.Second,
	}
	// With a custom tls.Config, HTTP2 isn't enabled by default in the HTTP
	// library. Turn it on for this transport.
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}
	return tr, nil
}
