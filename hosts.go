package ldns

import (
	"net"
	"strings"

	"github.com/miekg/dns"
)

// HostsDB is an in-memory table built from entries in hosts-file format. It
// maps names to addresses for A and AAAA queries and addresses back to names
// for PTR queries. Names are matched case-insensitively.
type HostsDB struct {
	names map[string][]hostAddr
	addrs map[string][]string
}

// An address of a hosts entry. The family is decided by how the address was
// written, so IPv4-mapped IPv6 addresses like ::ffff:10.0.0.1 answer AAAA queries.
type hostAddr struct {
	ip   net.IP
	ipv6 bool
}

// NewHostsDB returns a new instance of a hosts table with the entries provided by the loader.
func NewHostsDB(loader HostsLoader) (*HostsDB, error) {
	lines, err := loader.Load()
	if err != nil {
		return nil, err
	}
	db := &HostsDB{
		names: make(map[string][]hostAddr),
		addrs: make(map[string][]string),
	}
	for _, line := range lines {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		ipString := fields[0]
		// Drop the zone of link-local IPv6 addresses like fe80::1%lo0
		if i := strings.IndexByte(ipString, '%'); i >= 0 {
			ipString = ipString[:i]
		}
		ip := net.ParseIP(ipString)
		if ip == nil {
			Log.WithField("entry", line).Debug("ignoring hosts entry with invalid address")
			continue
		}
		for _, name := range fields[1:] {
			name = strings.TrimSuffix(name, ".")
			key := strings.ToLower(name)
			addr := hostAddr{ip: ip, ipv6: strings.Contains(ipString, ":")}
			if !containsAddr(db.names[key], addr) {
				db.names[key] = append(db.names[key], addr)
			}
			if !containsName(db.addrs[ip.String()], name) {
				db.addrs[ip.String()] = append(db.addrs[ip.String()], name)
			}
		}
	}
	return db, nil
}

// Lookup returns the answer records for a question, and false if the table has no
// answer for it. A questions are answered with IPv4 addresses, AAAA questions with
// IPv6 addresses, PTR questions with all names of the address.
func (m *HostsDB) Lookup(q dns.Question) ([]dns.RR, bool) {
	if q.Qclass != dns.ClassINET {
		return nil, false
	}
	var answer []dns.RR
	switch q.Qtype {
	case dns.TypeA:
		for _, addr := range m.names[hostKey(q.Name)] {
			if !addr.ipv6 {
				answer = append(answer, &dns.A{Hdr: rrHeader(q), A: addr.ip.To4()})
			}
		}
	case dns.TypeAAAA:
		for _, addr := range m.names[hostKey(q.Name)] {
			if addr.ipv6 {
				answer = append(answer, &dns.AAAA{Hdr: rrHeader(q), AAAA: addr.ip.To16()})
			}
		}
	case dns.TypePTR:
		ip := ptrAddr(q.Name)
		if ip == nil {
			return nil, false
		}
		for _, name := range m.addrs[ip.String()] {
			answer = append(answer, &dns.PTR{Hdr: rrHeader(q), Ptr: dns.Fqdn(name)})
		}
	}
	return answer, len(answer) > 0
}

func (m *HostsDB) String() string {
	return "Hosts"
}

func hostKey(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// Hosts records are not cached, they're local and can change at any time.
func rrHeader(q dns.Question) dns.RR_Header {
	return dns.RR_Header{
		Name:   q.Name,
		Rrtype: q.Qtype,
		Class:  q.Qclass,
		Ttl:    0,
	}
}

// Returns the address of a reverse lookup name like 4.3.2.1.in-addr.arpa. or
// nil if the name isn't a valid reverse name.
func ptrAddr(name string) net.IP {
	name = hostKey(name)
	switch {
	case strings.HasSuffix(name, ".in-addr.arpa"):
		labels := strings.Split(strings.TrimSuffix(name, ".in-addr.arpa"), ".")
		if len(labels) != net.IPv4len {
			return nil
		}
		reverse(labels)
		return net.ParseIP(strings.Join(labels, ".")).To4()
	case strings.HasSuffix(name, ".ip6.arpa"):
		nibbles := strings.Split(strings.TrimSuffix(name, ".ip6.arpa"), ".")
		if len(nibbles) != 2*net.IPv6len {
			return nil
		}
		reverse(nibbles)
		var b strings.Builder
		for i, n := range nibbles {
			if len(n) != 1 {
				return nil
			}
			if i > 0 && i%4 == 0 {
				b.WriteByte(':')
			}
			b.WriteString(n)
		}
		return net.ParseIP(b.String())
	}
	return nil
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func containsAddr(addrs []hostAddr, addr hostAddr) bool {
	for _, v := range addrs {
		if v.ipv6 == addr.ipv6 && v.ip.Equal(addr.ip) {
			return true
		}
	}
	return false
}

func containsName(names []string, name string) bool {
	for _, v := range names {
		if strings.EqualFold(v, name) {
			return true
		}
	}
	return false
}
