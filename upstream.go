package ldns

import (
	"crypto/tls"
	"fmt"
	"time"
)

// UpstreamOptions contains options for the resolver chain of one nameserver.
type UpstreamOptions struct {
	// Time allowed for one attempt. Defaults to DefaultQueryTimeout.
	Timeout time.Duration

	// Used with TLS and HTTPS nameservers.
	TLSConfig *tls.Config
}

// NewUpstream builds the resolver chain for one nameserver:
//
//	RequestDedup(TruncateRetry(Retry(Timeout(UDP)), Timeout(TCP)))
//
// UDP-only nameservers skip the TCP fallback, the stream transports (TCP, TLS,
// HTTPS) are bounded by a timeout but not retried.
func NewUpstream(ns Nameserver, opt UpstreamOptions) (Resolver, error) {
	if opt.Timeout == 0 {
		opt.Timeout = DefaultQueryTimeout
	}
	id := ns.String()

	var (
		r   Resolver
		err error
	)
	switch ns.Transport {
	case TransportUDP:
		r, err = datagramUpstream(id, ns.Address, opt)
	case TransportTCP:
		r, err = streamUpstream(id, ns.Address, "tcp", opt)
	case TransportTLS:
		r, err = streamUpstream(id, ns.Address, "tcp-tls", opt)
	case TransportAuto:
		var udp, tcp Resolver
		if udp, err = datagramUpstream(id, ns.Address, opt); err != nil {
			return nil, err
		}
		if tcp, err = streamUpstream(id, ns.Address, "tcp", opt); err != nil {
			return nil, err
		}
		r = NewTruncateRetry(id, udp, tcp)
	case TransportHTTPS:
		var doh *DoHClient
		doh, err = NewDoHClient(id, ns.Address, DoHClientOptions{
			QueryTimeout: opt.Timeout,
			TLSConfig:    opt.TLSConfig,
		})
		if err == nil {
			r = NewTimeout(id, doh, TimeoutOptions{Timeout: opt.Timeout})
		}
	default:
		return nil, fmt.Errorf("unsupported transport '%s' for nameserver '%s'", ns.Transport, ns.Address)
	}
	if err != nil {
		return nil, err
	}
	return NewRequestDedup(id, r), nil
}

func datagramUpstream(id, addr string, opt UpstreamOptions) (Resolver, error) {
	client, err := NewDNSClient(id+"/udp", addr, "udp", DNSClientOptions{QueryTimeout: opt.Timeout})
	if err != nil {
		return nil, err
	}
	return NewRetry(id, NewTimeout(id, client, TimeoutOptions{Timeout: opt.Timeout})), nil
}

func streamUpstream(id, addr, network string, opt UpstreamOptions) (Resolver, error) {
	client, err := NewDNSClient(id+"/"+network, addr, network, DNSClientOptions{
		QueryTimeout: opt.Timeout,
		TLSConfig:    opt.TLSConfig,
	})
	if err != nil {
		return nil, err
	}
	return NewTimeout(id, client, TimeoutOptions{Timeout: opt.Timeout}), nil
}
