package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"lendscore/internal/storage/memory"
)

// feedServer serves each message once to every connecting client, then
// closes the connection.
func feedServer(t *testing.T, messages []string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Hold the connection open so the tailer drains everything.
		time.Sleep(200 * time.Millisecond)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForStats(t *testing.T, tailer *Tailer, ok func(Stats) bool) Stats {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := tailer.Stats(); ok(s) {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	return tailer.Stats()
}

func TestTailer_StoresFeedEntries(t *testing.T) {
	srv := feedServer(t, []string{
		`{"userWallet": "0xa", "action": "deposit", "timestamp": 100, "actionData": {"amount": "1", "assetSymbol": "USDC"}}`,
		`{"userWallet": "0xb", "action": "borrow", "timestamp": 200, "actionData": {"amount": "2", "assetSymbol": "DAI"}}`,
	})
	defer srv.Close()

	store := memory.NewTransactionStore()
	tailer := NewTailer(wsURL(srv), store, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- tailer.Run(ctx) }()

	stats := waitForStats(t, tailer, func(s Stats) bool { return s.Ingested >= 2 })
	if stats.Ingested != 2 {
		t.Fatalf("ingested = %d, want 2", stats.Ingested)
	}

	tailer.Close()
	<-runErr

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("store count = %d, want 2", count)
	}
}

func TestTailer_SkipsDuplicatesAndMalformed(t *testing.T) {
	entry := `{"userWallet": "0xa", "action": "deposit", "timestamp": 100, "actionData": {"amount": "1", "assetSymbol": "USDC"}}`
	srv := feedServer(t, []string{
		entry,
		entry, // feed replay
		`not json`,
		`{"action": "deposit", "timestamp": 100}`, // no wallet
	})
	defer srv.Close()

	store := memory.NewTransactionStore()
	tailer := NewTailer(wsURL(srv), store, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- tailer.Run(ctx) }()

	stats := waitForStats(t, tailer, func(s Stats) bool {
		return s.Ingested >= 1 && s.Duplicates >= 1 && s.Malformed >= 2
	})

	tailer.Close()
	<-runErr

	if stats.Ingested != 1 {
		t.Errorf("ingested = %d, want 1", stats.Ingested)
	}
	if stats.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", stats.Duplicates)
	}
	if stats.Malformed != 2 {
		t.Errorf("malformed = %d, want 2", stats.Malformed)
	}
}

func TestTailer_ContextCancelStops(t *testing.T) {
	srv := feedServer(t, nil)
	defer srv.Close()

	store := memory.NewTransactionStore()
	tailer := NewTailer(wsURL(srv), store, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())

	runErr := make(chan error, 1)
	go func() { runErr <- tailer.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-runErr:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
