package ldns

import (
	"fmt"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

// MalformedMessageError is returned when a buffer can't be decoded as a DNS message.
type MalformedMessageError struct {
	Offset int
	Reason string
}

func (e MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message at offset %d: %s", e.Offset, e.Reason)
}

// QueryTimeoutError is returned when a query times out.
type QueryTimeoutError struct {
	query *dns.Msg
}

func (e QueryTimeoutError) Error() string {
	return fmt.Sprintf("query for '%s' timed out", qName(e.query))
}

// ConnectionError is returned when the connection to an upstream nameserver
// could not be established or failed while exchanging messages.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %s", e.Endpoint, e.Err)
}

func (e ConnectionError) Unwrap() error {
	return e.Err
}

// ProtocolError is returned when an upstream response is invalid, for example
// because its ID doesn't match the query.
type ProtocolError struct {
	Reason string
}

func (e ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}

func isTimeout(err error) bool {
	var timeoutErr QueryTimeoutError
	return errors.As(err, &timeoutErr)
}

// Returns a short name for the kind of failure, used in logs.
func errorKind(err error) string {
	var (
		malformed MalformedMessageError
		conn      ConnectionError
		protocol  ProtocolError
	)
	switch {
	case err == nil:
		return ""
	case isTimeout(err):
		return "timeout"
	case errors.As(err, &conn):
		return "connection"
	case errors.As(err, &protocol):
		return "protocol"
	case errors.As(err, &malformed):
		return "malformed"
	}
	return "other"
}
