package ldns

import (
	"net"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

// DefaultResolvConf is the location of the system's resolver configuration.
const DefaultResolvConf = "/etc/resolv.conf"

// SystemNameservers returns the nameservers listed in a resolv.conf file as
// host:port endpoints, in the order they appear.
func SystemNameservers(filename string) ([]string, error) {
	cfg, err := dns.ClientConfigFromFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read resolver config '%s'", filename)
	}
	servers := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers = append(servers, net.JoinHostPort(s, cfg.Port))
	}
	return servers, nil
}
