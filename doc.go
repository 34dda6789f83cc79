/*
Package ldns implements a local DNS forwarding proxy. It listens for queries on a
UDP socket, answers from a hosts table where possible and forwards everything
else to a set of upstream nameservers.

Resolvers

Everything that answers queries implements the Resolver interface. The upstream
chain for one nameserver is built from small resolvers that wrap each other:
DNSClient and DoHClient talk to the nameserver, Timeout bounds an attempt,
Retry repeats a timed out attempt once, TruncateRetry switches from UDP to TCP
for truncated responses and RequestDedup combines identical concurrent queries.
NewUpstream assembles this chain from a Nameserver.

Groups

RoundRobin spreads queries over the upstream chains, one after the other.
HostsResolver sits in front of it and answers names found in the hosts table.

Listeners

UDPListener reads client queries, resolves every question separately and
sends one response per question back to the client with the client's
transaction ID. AdminListener serves metrics over HTTP.
*/
package ldns
