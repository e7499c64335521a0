package http

import (
	"context"
	"net/http"
	"time"
)

// Options para el http.Server.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer arma el http.Server con timeouts; el shutdown lo maneja
// el caller (cmd/auth) con errgroup.
func NewServer(addr string, handler http.Handler, opts Options) *http.Server {
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
}

// Shutdown cierra el server con un deadline.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
