package ldns

import (
	"encoding/binary"
	"fmt"

	"github.com/miekg/dns"
)

const (
	headerLen      = 12
	minQuestionLen = 5  // root name, type, class
	minRecordLen   = 11 // root name, type, class, ttl, rdlength
	maxNameLen     = 255
)

// ParseMessage decodes a DNS message in wire format. The buffer is checked for
// structural problems first (short header, record counts that can't fit, record
// data past the end of the buffer, compression pointers that don't point
// backwards) which are reported as MalformedMessageError.
func ParseMessage(b []byte) (*dns.Msg, error) {
	compressed, err := validateWire(b)
	if err != nil {
		return nil, err
	}
	m := new(dns.Msg)
	if err := m.Unpack(b); err != nil {
		return nil, MalformedMessageError{Reason: err.Error()}
	}
	// Keep using compression when writing the message again if the sender did.
	m.Compress = compressed
	return m, nil
}

// SerializeMessage encodes a DNS message into wire format. Names are only
// compressed if m.Compress is set.
func SerializeMessage(m *dns.Msg) ([]byte, error) {
	return m.Pack()
}

// Walks the header, questions and resource records without decoding them and
// returns whether any owner name uses compression.
func validateWire(b []byte) (bool, error) {
	if len(b) < headerLen {
		return false, MalformedMessageError{len(b), fmt.Sprintf("message of %d bytes is shorter than the header", len(b))}
	}
	qdcount := int(binary.BigEndian.Uint16(b[4:]))
	rrcount := int(binary.BigEndian.Uint16(b[6:])) +
		int(binary.BigEndian.Uint16(b[8:])) +
		int(binary.BigEndian.Uint16(b[10:]))

	remaining := len(b) - headerLen
	if qdcount*minQuestionLen+rrcount*minRecordLen > remaining {
		return false, MalformedMessageError{headerLen,
			fmt.Sprintf("%d questions and %d records can't fit into %d bytes", qdcount, rrcount, remaining)}
	}

	var (
		off        = headerLen
		compressed bool
	)
	for i := 0; i < qdcount; i++ {
		next, ptr, err := skipName(b, off)
		if err != nil {
			return false, err
		}
		compressed = compressed || ptr
		if next+4 > len(b) {
			return false, MalformedMessageError{next, "question truncated"}
		}
		off = next + 4
	}
	for i := 0; i < rrcount; i++ {
		next, ptr, err := skipName(b, off)
		if err != nil {
			return false, err
		}
		compressed = compressed || ptr
		if next+10 > len(b) {
			return false, MalformedMessageError{next, "record header truncated"}
		}
		rrtype := binary.BigEndian.Uint16(b[next:])
		rdlength := int(binary.BigEndian.Uint16(b[next+8:]))
		off = next + 10
		if off+rdlength > len(b) {
			return false, MalformedMessageError{off, fmt.Sprintf("record data length %d exceeds message", rdlength)}
		}
		ptr, err = skipRdataNames(b, rrtype, off, off+rdlength)
		if err != nil {
			return false, err
		}
		compressed = compressed || ptr
		off += rdlength
	}
	return compressed, nil
}

// Validates the names in the data of record types that may use compression.
// Every name has to end within the record data [start, end).
func skipRdataNames(b []byte, rrtype uint16, start, end int) (bool, error) {
	var names int
	switch rrtype {
	case dns.TypeCNAME, dns.TypeNS, dns.TypePTR, dns.TypeDNAME:
		names = 1
	case dns.TypeSOA:
		names = 2
	case dns.TypeMX:
		// 2-byte preference before the exchange name
		start += 2
		if start > end {
			return false, MalformedMessageError{end, "MX record data too short"}
		}
		names = 1
	default:
		return false, nil
	}

	var compressed bool
	off := start
	for i := 0; i < names; i++ {
		next, ptr, err := skipName(b[:end], off)
		if err != nil {
			return false, err
		}
		compressed = compressed || ptr
		off = next
	}
	return compressed, nil
}

// Skips over the domain name starting at off and returns the offset of the first
// byte after it. Compression pointers are followed to validate the full name,
// every pointer has to point before the start of the labels that contain it,
// so a chain of pointers always terminates.
func skipName(b []byte, off int) (int, bool, error) {
	var (
		next     = -1
		segStart = off
		length   = 1
		ptr      bool
	)
	for {
		if off >= len(b) {
			return 0, false, MalformedMessageError{off, "name extends past end of message"}
		}
		c := int(b[off])
		switch c & 0xC0 {
		case 0x00:
			if c == 0 {
				if next < 0 {
					next = off + 1
				}
				return next, ptr, nil
			}
			length += c + 1
			if length > maxNameLen {
				return 0, false, MalformedMessageError{off, "name longer than 255 bytes"}
			}
			off += c + 1
		case 0xC0:
			if off+1 >= len(b) {
				return 0, false, MalformedMessageError{off, "truncated compression pointer"}
			}
			target := (c&0x3F)<<8 | int(b[off+1])
			if target >= segStart {
				return 0, false, MalformedMessageError{off, fmt.Sprintf("compression pointer to %d does not point backwards", target)}
			}
			if next < 0 {
				next = off + 2
			}
			ptr = true
			off = target
			segStart = target
		default:
			return 0, false, MalformedMessageError{off, fmt.Sprintf("unsupported label type 0x%02x", c&0xC0)}
		}
	}
}
