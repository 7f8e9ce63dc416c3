package server

import (
	"net/http"
	"testing"
	"time"

	"vimeet/internal/config"
)

func TestNewHTTPServer(t *testing.T) {
	cfg := config.Config{BindAddress: "127.0.0.1", Port: 4321}
	srv := NewHTTPServer(cfg, http.NewServeMux())
	if srv.Addr != "127.0.0.1:4321" {
		t.Fatalf("expected 127.0.0.1:4321, got %q", srv.Addr)
	}
	if srv.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("unexpected ReadHeaderTimeout")
	}
}
