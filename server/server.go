package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sisu-network/lib/log"
)

type Server struct {
	handler        *rpc.Server
	listenAddress  string
	metricsEnabled bool
	srv            *http.Server
}

func NewServer(handler *rpc.Server, port int, metricsEnabled bool) *Server {
	return &Server{
		handler:        handler,
		listenAddress:  fmt.Sprintf("0.0.0.0:%d", port),
		metricsEnabled: metricsEnabled,
	}
}

// NewRpcHandler registers api under the "flash" namespace.
func NewRpcHandler(api *ApiHandler) (*rpc.Server, error) {
	handler := rpc.NewServer()
	if err := handler.RegisterName("flash", api); err != nil {
		return nil, err
	}

	return handler, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s.handler)
	if s.metricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	return mux
}

// Run serves until Stop is called.
func (s *Server) Run() error {
	listener, err := net.Listen("tcp", s.listenAddress)
	if err != nil {
		return err
	}

	s.srv = &http.Server{Handler: s.Handler()}
	log.Info("Running server at ", s.listenAddress)

	err = s.srv.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func (s *Server) Stop(ctx context.Context) error {
	s.handler.Stop()
	if s.srv == nil {
		return nil
	}

	return s.srv.Shutdown(ctx)
}
