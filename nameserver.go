package ldns

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Default ports for upstream nameservers.
var (
	PlainDNSPort = "53"
	DoTPort      = "853"
)

// Transport selects how queries are sent to a nameserver.
type Transport string

const (
	// UDP first, TCP if the response was truncated.
	TransportAuto  Transport = "auto"
	TransportUDP   Transport = "udp"
	TransportTCP   Transport = "tcp"
	TransportTLS   Transport = "tls"
	TransportHTTPS Transport = "https"
)

// Nameserver is an upstream DNS server.
type Nameserver struct {
	// host:port, or the URL for HTTPS nameservers.
	Address   string
	Transport Transport
}

// ParseNameserver reads a nameserver address in the form [scheme://]host[:port].
// The scheme "udp" forces UDP, "tcp" forces TCP, "tls" uses DNS-over-TLS and
// "https" DNS-over-HTTPS. Without scheme, UDP is used and truncated responses
// are retried over TCP.
func ParseNameserver(s string) (Nameserver, error) {
	scheme, rest := "", s
	if i := strings.Index(s, "://"); i >= 0 {
		scheme, rest = strings.ToLower(s[:i]), s[i+3:]
	}

	var ns Nameserver
	switch scheme {
	case "":
		ns = Nameserver{AddressWithDefault(rest, PlainDNSPort), TransportAuto}
	case "udp":
		ns = Nameserver{AddressWithDefault(rest, PlainDNSPort), TransportUDP}
	case "tcp":
		ns = Nameserver{AddressWithDefault(rest, PlainDNSPort), TransportTCP}
	case "tls":
		ns = Nameserver{AddressWithDefault(rest, DoTPort), TransportTLS}
	case "https":
		u, err := url.Parse(s)
		if err != nil {
			return Nameserver{}, fmt.Errorf("invalid nameserver '%s': %w", s, err)
		}
		if u.Host == "" {
			return Nameserver{}, fmt.Errorf("invalid nameserver '%s': missing host", s)
		}
		return Nameserver{s, TransportHTTPS}, nil
	default:
		return Nameserver{}, fmt.Errorf("unsupported scheme '%s' in nameserver '%s'", scheme, s)
	}
	if err := validEndpoint(ns.Address); err != nil {
		return Nameserver{}, fmt.Errorf("invalid nameserver '%s': %w", s, err)
	}
	return ns, nil
}

func (n Nameserver) String() string {
	switch n.Transport {
	case TransportAuto, TransportHTTPS:
		return n.Address
	}
	return string(n.Transport) + "://" + n.Address
}

// AddressWithDefault adds the default port to an address that doesn't have one.
// Bare IPv6 addresses are bracketed.
func AddressWithDefault(addr, defaultPort string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	host := strings.TrimSuffix(strings.TrimPrefix(addr, "["), "]")
	if host == "" {
		return addr
	}
	return net.JoinHostPort(host, defaultPort)
}
