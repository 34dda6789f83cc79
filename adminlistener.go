package ldns

import (
	"context"
	"errors"
	"expvar"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Read/Write timeout in the admin server
const adminServerTimeout = 10 * time.Second

// AdminListener serves the metrics over plain HTTP.
type AdminListener struct {
	httpServer *http.Server

	id   string
	addr string
}

var _ Listener = &AdminListener{}

// NewAdminListener returns an instance of an admin service listener.
func NewAdminListener(id, addr string) *AdminListener {
	mux := http.NewServeMux()
	mux.Handle("/localdns/vars", expvar.Handler())
	return &AdminListener{
		id:   id,
		addr: addr,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  adminServerTimeout,
			WriteTimeout: adminServerTimeout,
		},
	}
}

// Start the admin server.
func (s *AdminListener) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve admin requests on ln until the listener is stopped.
func (s *AdminListener) Serve(ln net.Listener) error {
	Log.WithFields(logrus.Fields{"id": s.id, "protocol": "http", "addr": ln.Addr()}).Info("starting listener")
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop the server.
func (s *AdminListener) Stop() error {
	Log.WithFields(logrus.Fields{"id": s.id, "protocol": "http", "addr": s.addr}).Info("stopping listener")
	return s.httpServer.Shutdown(context.Background())
}

func (s *AdminListener) String() string {
	return s.id
}
