package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/Aktiar0403/ShukkuList1.2/internal/config"
)

// TLS modes accepted in server.tls.mode.
const (
	TLSOff    = "off"
	TLSAuto   = "auto"
	TLSManual = "manual"
)

// Server owns the API listener and, in auto TLS mode, the ACME challenge
// listener on :80.
type Server struct {
	api      *http.Server
	acme     *http.Server
	certs    *autocert.Manager
	tls      config.TLSConfig
	listenOn string
}

// New prepares a server for cfg. In auto TLS mode the certificate cache
// directory is created up front so a bad path fails at startup.
func New(cfg config.ServerConfig, h http.Handler) (*Server, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	s := &Server{
		listenOn: addr,
		tls:      cfg.TLS,
		api: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// Metadata fetches may retry once on a 10s budget each.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
			ErrorLog:     slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		},
	}

	if cfg.TLS.Mode != TLSAuto {
		return s, nil
	}

	if err := os.MkdirAll(cfg.TLS.Auto.CacheDir, 0700); err != nil {
		return nil, fmt.Errorf("creating TLS cache directory: %w", err)
	}
	s.certs = &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.TLS.Auto.Domain),
		Cache:      autocert.DirCache(cfg.TLS.Auto.CacheDir),
		Email:      cfg.TLS.Auto.Email,
	}
	s.api.TLSConfig = &tls.Config{
		GetCertificate: s.certs.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
	s.acme = &http.Server{
		Addr:              ":80",
		Handler:           s.certs.HTTPHandler(nil),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return s, nil
}

// Start serves until Shutdown and returns nil after a clean shutdown.
func (s *Server) Start() error {
	var err error
	switch s.TLSMode() {
	case TLSAuto:
		go s.serveACME()
		slog.Info("listening", "addr", s.listenOn, "tls", TLSAuto, "domain", s.tls.Auto.Domain)
		err = s.api.ListenAndServeTLS("", "")
	case TLSManual:
		slog.Info("listening", "addr", s.listenOn, "tls", TLSManual)
		err = s.api.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
	default:
		slog.Info("listening", "addr", s.listenOn, "tls", TLSOff)
		err = s.api.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) serveACME() {
	slog.Info("listening for ACME challenges", "addr", s.acme.Addr)
	if err := s.acme.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("ACME challenge listener failed", "error", err)
	}
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down server")
	if s.acme != nil {
		if err := s.acme.Shutdown(ctx); err != nil {
			slog.Warn("ACME challenge listener shutdown", "error", err)
		}
	}
	return s.api.Shutdown(ctx)
}

func (s *Server) Addr() string { return s.listenOn }

func (s *Server) TLSMode() string {
	if s.tls.Mode == "" {
		return TLSOff
	}
	return s.tls.Mode
}
