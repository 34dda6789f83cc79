package ldns

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNameserver(t *testing.T) {
	tests := []struct {
		input    string
		expected Nameserver
	}{
		{"1.1.1.1", Nameserver{"1.1.1.1:53", TransportAuto}},
		{"1.1.1.1:5353", Nameserver{"1.1.1.1:5353", TransportAuto}},
		{"::1", Nameserver{"[::1]:53", TransportAuto}},
		{"[::1]", Nameserver{"[::1]:53", TransportAuto}},
		{"[::1]:5353", Nameserver{"[::1]:5353", TransportAuto}},
		{"udp://8.8.8.8", Nameserver{"8.8.8.8:53", TransportUDP}},
		{"tcp://8.8.8.8", Nameserver{"8.8.8.8:53", TransportTCP}},
		{"TCP://8.8.8.8:5353", Nameserver{"8.8.8.8:5353", TransportTCP}},
		{"tls://dns.example.com", Nameserver{"dns.example.com:853", TransportTLS}},
		{"https://dns.example.com/dns-query", Nameserver{"https://dns.example.com/dns-query", TransportHTTPS}},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			ns, err := ParseNameserver(test.input)
			require.NoError(t, err)
			require.Equal(t, test.expected, ns)
		})
	}
}

func TestParseNameserverInvalid(t *testing.T) {
	for _, input := range []string{
		"",
		"quic://1.1.1.1",
		"1.1.1.1:port",
		"https:///dns-query",
		"bad..host",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseNameserver(input)
			require.Error(t, err)
		})
	}
}

func TestNameserverString(t *testing.T) {
	ns, err := ParseNameserver("tcp://8.8.8.8")
	require.NoError(t, err)
	require.Equal(t, "tcp://8.8.8.8:53", ns.String())

	ns, err = ParseNameserver("8.8.8.8")
	require.NoError(t, err)
	require.Equal(t, "8.8.8.8:53", ns.String())
}

func TestAddressWithDefault(t *testing.T) {
	require.Equal(t, "1.1.1.1:53", AddressWithDefault("1.1.1.1", "53"))
	require.Equal(t, "1.1.1.1:5353", AddressWithDefault("1.1.1.1:5353", "53"))
	require.Equal(t, "[2001:db8::1]:853", AddressWithDefault("2001:db8::1", "853"))
	require.Equal(t, "dns.example.com:853", AddressWithDefault("dns.example.com", "853"))
}
