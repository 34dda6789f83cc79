package ldns

import (
	"net"
	"sync"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"github.com/tevino/abool"
)

// UDPListener reads DNS queries from a UDP socket. Every question of a query is
// resolved on its own and answered with a separate response as soon as its
// answer is available, carrying the transaction ID of the client's query.
// Queries that can't be parsed and questions that can't be resolved get no
// response.
type UDPListener struct {
	id       string
	addr     string
	resolver Resolver
	metrics  *ListenerMetrics

	mu     sync.Mutex
	conn   net.PacketConn
	closed *abool.AtomicBool
}

var _ Listener = &UDPListener{}

// NewUDPListener returns a listener for the given address that forwards all
// queries to the resolver.
func NewUDPListener(id, addr string, resolver Resolver) *UDPListener {
	return &UDPListener{
		id:       id,
		addr:     addr,
		resolver: resolver,
		metrics:  NewListenerMetrics("listener", id),
		closed:   abool.New(),
	}
}

// Start listening on the configured address.
func (s *UDPListener) Start() error {
	pc, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(pc)
}

// Serve queries received on pc until the listener is stopped.
func (s *UDPListener) Serve(pc net.PacketConn) error {
	s.mu.Lock()
	s.conn = pc
	s.mu.Unlock()
	defer pc.Close()
	if s.closed.IsSet() {
		return nil
	}

	Log.WithFields(logrus.Fields{"id": s.id, "protocol": "udp", "addr": pc.LocalAddr()}).Info("starting listener")
	buf := make([]byte, dns.MaxMsgSize)
	for {
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			if s.closed.IsSet() {
				return nil
			}
			return err
		}
		// The buffer is reused for the next read
		packet := make([]byte, n)
		copy(packet, buf[:n])
		s.handle(pc, addr, packet)
	}
}

// Stop closes the socket, queries that are still being resolved are abandoned.
func (s *UDPListener) Stop() error {
	s.closed.Set()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	Log.WithFields(logrus.Fields{"id": s.id, "protocol": "udp", "addr": s.addr}).Info("stopping listener")
	return s.conn.Close()
}

func (s *UDPListener) String() string {
	return s.id
}

// Decodes a query and dispatches its questions in order. Only the upstream
// exchanges run in the background, so the loop is never blocked by them.
func (s *UDPListener) handle(pc net.PacketConn, addr net.Addr, b []byte) {
	ci := ClientInfo{Listener: s.id}
	if udpAddr, ok := addr.(*net.UDPAddr); ok {
		ci.SourceIP = udpAddr.IP
	}
	s.metrics.query.Add(1)

	req, err := ParseMessage(b)
	if err != nil {
		s.metrics.err.Add("parse", 1)
		s.metrics.drop.Add(1)
		Log.WithFields(logrus.Fields{"id": s.id, "client": addr}).WithError(err).Warn("dropping malformed query")
		return
	}
	logger(s.id, req, ci).WithField("questions", len(req.Question)).Debug("received query")

	for _, question := range req.Question {
		q := questionQuery(req, question)
		result := Dispatch(s.resolver, q, ci)
		go s.reply(pc, addr, req.Id, q, ci, result)
	}
}

// Waits for the answer to one question and sends it to the client.
func (s *UDPListener) reply(pc net.PacketConn, addr net.Addr, id uint16, q *dns.Msg, ci ClientInfo, result <-chan Result) {
	res := <-result
	log := logger(s.id, q, ci).WithField("addr", addr)
	if res.Err != nil {
		s.metrics.err.Add("resolve", 1)
		s.metrics.drop.Add(1)
		log.WithError(res.Err).WithField("kind", errorKind(res.Err)).Error("failed to resolve")
		return
	}
	if res.Answer == nil {
		s.metrics.drop.Add(1)
		log.Debug("no answer, dropping query")
		return
	}

	a := res.Answer
	a.Id = id
	b, err := SerializeMessage(a)
	if err != nil {
		s.metrics.err.Add("pack", 1)
		log.WithError(err).Error("failed to encode response")
		return
	}
	if _, err := pc.WriteTo(b, addr); err != nil {
		s.metrics.err.Add("send", 1)
		log.WithError(err).Error("failed to send response")
		return
	}
	s.metrics.response.Add(rCode(a), 1)
	log.WithField("rcode", rCode(a)).Debug("sent response")
}
