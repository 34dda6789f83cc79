package ldns

import (
	"strconv"

	"github.com/miekg/dns"
)

// Return the query name from a DNS query.
func qName(q *dns.Msg) string {
	if q == nil || len(q.Question) == 0 {
		return ""
	}
	return q.Question[0].Name
}

// Returns the string representation of the query type.
func qType(q *dns.Msg) string {
	if q == nil || len(q.Question) == 0 {
		return ""
	}
	return dns.Type(q.Question[0].Qtype).String()
}

// Return the result code name from a DNS response.
func rCode(r *dns.Msg) string {
	if result, ok := dns.RcodeToString[r.Rcode]; ok {
		return result
	}
	return strconv.Itoa(r.Rcode)
}

// Builds an upstream query for one question of a client request. The header
// flags of the request are carried over, as is its EDNS0 record, but the query
// gets its own ID.
func questionQuery(req *dns.Msg, question dns.Question) *dns.Msg {
	q := new(dns.Msg)
	q.Id = dns.Id()
	q.Opcode = req.Opcode
	q.RecursionDesired = req.RecursionDesired
	q.AuthenticatedData = req.AuthenticatedData
	q.CheckingDisabled = req.CheckingDisabled
	q.Question = []dns.Question{question}
	if edns0 := req.IsEdns0(); edns0 != nil {
		q.Extra = append(q.Extra, dns.Copy(edns0))
	}
	return q
}

// Builds a response to q with the given answer records.
func answerWith(q *dns.Msg, answer []dns.RR) *dns.Msg {
	a := new(dns.Msg)
	a.SetReply(q)
	a.RecursionAvailable = q.RecursionDesired
	a.Answer = answer
	return a
}
