package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vimeet/internal/coordinator"
)

func TestRouter_RootRedirectsToStaticPage(t *testing.T) {
	router := NewRouter(Deps{Coordinator: coordinator.New(), StaticDir: t.TempDir()})
	srv := httptest.NewServer(router)
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/static/websocket.html" {
		t.Fatalf("unexpected redirect target: %q", loc)
	}
}

func TestRouter_ServesStaticAssets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "websocket.html"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to seed static file: %v", err)
	}

	router := NewRouter(Deps{Coordinator: coordinator.New(), StaticDir: dir})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/static/websocket.html")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRouter_WebSocketUpgradeJoinsRoom(t *testing.T) {
	coord := coordinator.New()
	router := NewRouter(Deps{Coordinator: coord, StaticDir: t.TempDir()})
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):] + "/ws/room1/alice/"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("expected a join snapshot message, got error: %v", err)
	}
	if len(msg) == 0 {
		t.Fatalf("expected a non-empty message")
	}
}

func TestRouter_WebSocketUpgradeRequiresRoomAndName(t *testing.T) {
	coord := coordinator.New()
	router := NewRouter(Deps{Coordinator: coord, StaticDir: t.TempDir()})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws//alice/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected the empty room segment to be rejected, got %d", resp.StatusCode)
	}
}
