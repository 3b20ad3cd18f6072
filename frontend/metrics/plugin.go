// Copyright 2025 NetApp, Inc. All Rights Reserved.

package metrics

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/kr/secureheader"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netapp/guts/config"
	"github.com/netapp/guts/frontend"
	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/utils/errors"
)

// TLSConfig enables HTTPS. When ClientCommonName is set, clients must present a certificate signed by the CA
// in CACertFile whose common name matches it.
type TLSConfig struct {
	CACertFile       string
	CertFile         string
	KeyFile          string
	ClientCommonName string
}

type Option func(*Server)

// WithTLS serves over HTTPS.
func WithTLS(cfg TLSConfig) Option {
	return func(s *Server) {
		s.tls = &cfg
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.server.WriteTimeout = d
	}
}

// Server serves the metrics of a gatherer, normally an event service's.
type Server struct {
	server *http.Server
	tls    *TLSConfig

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

var _ frontend.Plugin = (*Server)(nil)

// NewServer builds a metrics frontend on address:port. Port 0 picks a free port on Activate.
func NewServer(address, port string, gatherer prometheus.Gatherer, opts ...Option) (*Server, error) {
	ctx := GenerateRequestContext(context.Background(), "", ContextSourceInternal, WorkflowPluginActivate,
		LogLayerMetricsFrontend)

	if gatherer == nil {
		return nil, errors.InvalidInputError("metrics frontend needs a gatherer")
	}

	mux := http.NewServeMux()
	mux.Handle(config.MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s := &Server{
		server: &http.Server{
			Addr:         net.JoinHostPort(address, port),
			Handler:      mux,
			ReadTimeout:  config.HTTPTimeout,
			WriteTimeout: config.HTTPTimeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.tls != nil {
		tlsConfig, err := s.tls.build()
		if err != nil {
			return nil, err
		}
		s.server.TLSConfig = tlsConfig

		var handler http.Handler = mux
		if s.tls.ClientCommonName != "" {
			handler = &clientNameHandler{handler: mux, commonName: s.tls.ClientCommonName}
		}
		s.server.Handler = secureheader.Handler(handler)
	}

	Logc(ctx).WithFields(LogFields{
		"address": s.server.Addr,
		"https":   s.tls != nil,
	}).Info("Initializing metrics frontend.")

	return s, nil
}

func (c *TLSConfig) build() (*tls.Config, error) {
	if c.CertFile == "" || c.KeyFile == "" {
		return nil, errors.InvalidInputError("HTTPS metrics frontend needs a certificate and a key")
	}
	tlsConfig := &tls.Config{
		ClientAuth: tls.NoClientCert,
		MinVersion: config.MinServerTLSVersion,
	}
	if c.ClientCommonName == "" {
		return tlsConfig, nil
	}

	if c.CACertFile == "" {
		return nil, errors.InvalidInputError("client certificate checks need a CA certificate")
	}
	caCert, err := os.ReadFile(c.CACertFile)
	if err != nil {
		return nil, fmt.Errorf("could not read CA certificate file; %v", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, errors.InvalidInputError("no certificate found in %s", c.CACertFile)
	}
	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	return tlsConfig, nil
}

// Activate binds the listener and serves in the background. Bind errors are returned.
func (s *Server) Activate() error {
	ctx := GenerateRequestContext(context.Background(), "", ContextSourceInternal, WorkflowPluginActivate,
		LogLayerMetricsFrontend)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s; %w", s.server.Addr, err)
	}
	s.listener = listener
	s.done = make(chan struct{})

	Logc(ctx).WithField("address", listener.Addr().String()).Info("Activating metrics frontend.")

	go func(done chan struct{}) {
		defer close(done)
		var err error
		if s.tls != nil {
			err = s.server.ServeTLS(listener, s.tls.CertFile, s.tls.KeyFile)
		} else {
			err = s.server.Serve(listener)
		}
		if err == http.ErrServerClosed {
			Logc(ctx).WithField("address", listener.Addr().String()).Info("Metrics frontend server has closed.")
		} else if err != nil {
			Logc(ctx).WithError(err).Error("Metrics frontend server failed.")
		}
	}(s.done)
	return nil
}

// Deactivate shuts the server down, waiting up to the HTTP timeout for open requests.
func (s *Server) Deactivate() error {
	ctx := GenerateRequestContext(context.Background(), "", ContextSourceInternal, WorkflowPluginDeactivate,
		LogLayerMetricsFrontend)

	s.mu.Lock()
	done := s.done
	active := s.listener != nil
	s.mu.Unlock()

	Logc(ctx).WithField("address", s.server.Addr).Info("Deactivating metrics frontend.")
	ctx, cancel := context.WithTimeout(ctx, config.HTTPTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	if active {
		<-done
	}
	return nil
}

// Addr returns the bound address once active, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

func (s *Server) GetName() string {
	if s.tls != nil {
		return "HTTPS metrics"
	}
	return "metrics"
}

func (s *Server) Version() string {
	return config.Version()
}

// clientNameHandler admits requests whose verified client certificate carries commonName.
type clientNameHandler struct {
	handler    http.Handler
	commonName string
}

func (h *clientNameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 &&
		r.TLS.PeerCertificates[0].Subject.CommonName == h.commonName {
		h.handler.ServeHTTP(w, r)
		return
	}
	w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=\"%s\"", config.ProductName))
	w.WriteHeader(http.StatusUnauthorized)
}
