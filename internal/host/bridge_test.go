package host

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestBridge(t *testing.T, handler http.Handler) *Bridge {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	bridge, err := NewBridge(BridgeConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Retries: 0,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new bridge: %v", err)
	}
	return bridge
}

func TestBridgeOnlinePlayers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/players", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"players": []Player{
				{ID: "uuid-1", Name: "Steve"},
				{ID: "uuid-2", Name: "Alex"},
			},
		})
	})

	bridge := newTestBridge(t, mux)

	players, err := bridge.OnlinePlayers(context.Background())
	if err != nil {
		t.Fatalf("online players: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(players))
	}
	if players[0].Name != "Steve" {
		t.Errorf("unexpected player name: %s", players[0].Name)
	}
}

func TestBridgePositionOfflinePlayer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/players/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	bridge := newTestBridge(t, mux)

	_, err := bridge.PlayerPosition(context.Background(), "gone")
	if !errors.Is(err, ErrPlayerOffline) {
		t.Fatalf("expected ErrPlayerOffline, got %v", err)
	}
}

func TestBridgeResolveNameUsesCache(t *testing.T) {
	var lookups atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/players/uuid-1", func(w http.ResponseWriter, r *http.Request) {
		lookups.Add(1)
		_ = json.NewEncoder(w).Encode(Player{ID: "uuid-1", Name: "Steve"})
	})

	bridge := newTestBridge(t, mux)

	for i := 0; i < 3; i++ {
		name, err := bridge.ResolveName(context.Background(), "uuid-1")
		if err != nil {
			t.Fatalf("resolve name: %v", err)
		}
		if name != "Steve" {
			t.Fatalf("expected Steve, got %s", name)
		}
	}

	if lookups.Load() != 1 {
		t.Fatalf("expected 1 host lookup, got %d", lookups.Load())
	}
}

func TestBridgeKickAndBroadcast(t *testing.T) {
	var gotKick, gotBroadcast string
	mux := http.NewServeMux()
	mux.HandleFunc("/players/uuid-1/kick", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotKick = body["message"]
	})
	mux.HandleFunc("/broadcast", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotBroadcast = body["message"]
	})

	bridge := newTestBridge(t, mux)

	if err := bridge.Kick(context.Background(), "uuid-1", "bye"); err != nil {
		t.Fatalf("kick: %v", err)
	}
	if err := bridge.Broadcast(context.Background(), "hello"); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	if gotKick != "bye" {
		t.Errorf("expected kick message 'bye', got %q", gotKick)
	}
	if gotBroadcast != "hello" {
		t.Errorf("expected broadcast 'hello', got %q", gotBroadcast)
	}
}
