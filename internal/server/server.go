package server

import (
	"fmt"
	"net/http"
	"time"

	"vimeet/internal/config"
)

// NewHTTPServer builds the *http.Server that serves handler on the
// address computed from config.
func NewHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run serves handler until the listener fails. A bind failure's
// non-zero exit is left to the caller (main logs and calls log.Fatal).
func Run(cfg config.Config, handler http.Handler) error {
	srv := NewHTTPServer(cfg, handler)
	return srv.ListenAndServe()
}
