package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// Server exposes the registry on /metrics.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

func NewRouter(reg *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("metrics-router"))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

// NewServer binds the listener right away so that a taken port is
// reported at startup, not from the serving goroutine.
func NewServer(host, port string, handler http.Handler) (*Server, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, err
	}

	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) Serve() {
	go func() {
		log.Debugf(" > metrics listening on: [%s]", s.Addr())
		err := s.httpServer.Serve(s.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server, serve: %s", err)
		}
	}()
}

// Shutdown also releases the listener when Serve was never called.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if closeErr := s.listener.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		return errors.Join(err, closeErr)
	}
	return err
}
