package ldns

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Checks that addr is host:port with a numeric port and a host that is either
// an IP, optionally with a zone, or a valid hostname.
func validEndpoint(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return errors.Wrapf(err, "invalid port in '%s'", addr)
	}
	if i := strings.IndexByte(host, '%'); i > 0 {
		host = host[:i]
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	return validHostname(host)
}

// Hostname rules of RFC 1123 section 2.1. A trailing dot is allowed, the last
// label can't be all digits so it's not mistaken for an IPv4 address.
func validHostname(name string) error {
	if name == "" {
		return errors.New("hostname empty")
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("invalid hostname %q: too long", name)
	}
	labels := strings.Split(strings.TrimSuffix(name, "."), ".")
	for _, label := range labels {
		if err := validLabel(label); err != nil {
			return fmt.Errorf("invalid hostname %q: %w", name, err)
		}
	}
	if strings.Trim(labels[len(labels)-1], "0123456789") == "" {
		return fmt.Errorf("invalid hostname %q: last label can not be all numeric", name)
	}
	return nil
}

func validLabel(label string) error {
	switch {
	case label == "":
		return errors.New("empty label")
	case len(label) > 63:
		return errors.New("label longer than 63 characters")
	case label[0] == '-' || label[len(label)-1] == '-':
		return errors.New("label can not start or end with -")
	}
	for _, c := range label {
		isAlnum := c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
		if !isAlnum && c != '-' {
			return fmt.Errorf("invalid character %q", string(c))
		}
	}
	return nil
}
