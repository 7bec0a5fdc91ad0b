// Package stream tails a live ledger feed over WebSocket and persists
// entries as they arrive.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"lendscore/internal/ingest"
	"lendscore/internal/storage"
)

// TailerConfig configures WebSocket tailer behavior.
type TailerConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultTailerConfig returns default tailer configuration.
func DefaultTailerConfig() TailerConfig {
	return TailerConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Tailer consumes a feed of JSON ledger entries, one per message, and
// appends them to the transaction store. Duplicate entries from feed
// replays are skipped.
type Tailer struct {
	endpoint string
	config   TailerConfig
	store    storage.TransactionStore
	logger   zerolog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup

	// Stats counters, read via Stats().
	ingested   atomic.Int64
	duplicates atomic.Int64
	malformed  atomic.Int64
}

// NewTailer creates a tailer for the given feed endpoint.
func NewTailer(endpoint string, store storage.TransactionStore, config *TailerConfig, logger zerolog.Logger) *Tailer {
	cfg := DefaultTailerConfig()
	if config != nil {
		cfg = *config
	}
	return &Tailer{
		endpoint: endpoint,
		config:   cfg,
		store:    store,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Stats reports counters since the tailer started.
type Stats struct {
	Ingested   int64
	Duplicates int64
	Malformed  int64
}

// Stats returns a snapshot of the tailer counters.
func (t *Tailer) Stats() Stats {
	return Stats{
		Ingested:   t.ingested.Load(),
		Duplicates: t.duplicates.Load(),
		Malformed:  t.malformed.Load(),
	}
}

// Run connects and consumes the feed until ctx is cancelled or Close is
// called. Connection drops are retried with exponential backoff.
func (t *Tailer) Run(ctx context.Context) error {
	if err := t.connect(ctx); err != nil {
		return err
	}

	t.wg.Add(1)
	go t.pingLoop()

	go func() {
		select {
		case <-ctx.Done():
			t.Close()
		case <-t.done:
		}
	}()

	t.readLoop(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Close stops the tailer and closes the connection.
func (t *Tailer) Close() error {
	if t.closed.Swap(true) {
		return nil // Already closed
	}
	close(t.done)

	t.connMu.Lock()
	if t.conn != nil {
		t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.conn.Close()
	}
	t.connMu.Unlock()

	t.wg.Wait()
	return nil
}

// connect establishes the WebSocket connection.
func (t *Tailer) connect(ctx context.Context) error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	t.conn = conn
	return nil
}

// readLoop reads feed messages and persists them, reconnecting on failure.
func (t *Tailer) readLoop(ctx context.Context) {
	reconnectDelay := t.config.ReconnectDelay

	for !t.closed.Load() {
		t.connMu.Lock()
		conn := t.conn
		t.connMu.Unlock()

		if conn == nil {
			if !t.waitReconnect(ctx, reconnectDelay) {
				return
			}
			reconnectDelay = t.nextDelay(reconnectDelay)
			continue
		}

		conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if t.closed.Load() {
				return
			}

			t.logger.Warn().Err(err).Msg("feed read failed, reconnecting")

			t.connMu.Lock()
			if t.conn != nil {
				t.conn.Close()
				t.conn = nil
			}
			t.connMu.Unlock()

			if !t.waitReconnect(ctx, reconnectDelay) {
				return
			}
			reconnectDelay = t.nextDelay(reconnectDelay)
			continue
		}

		// Reset delay on successful read
		reconnectDelay = t.config.ReconnectDelay

		t.handleMessage(ctx, message)
	}
}

// waitReconnect sleeps for delay then redials. Returns false on shutdown.
func (t *Tailer) waitReconnect(ctx context.Context, delay time.Duration) bool {
	select {
	case <-t.done:
		return false
	case <-time.After(delay):
	}

	if err := t.connect(ctx); err != nil {
		t.logger.Warn().Err(err).Dur("retry_in", t.nextDelay(delay)).Msg("reconnect failed")
	}
	return !t.closed.Load()
}

func (t *Tailer) nextDelay(delay time.Duration) time.Duration {
	delay *= 2
	if delay > t.config.MaxReconnectDelay {
		delay = t.config.MaxReconnectDelay
	}
	return delay
}

// handleMessage parses one feed message and appends it to the store.
func (t *Tailer) handleMessage(ctx context.Context, message []byte) {
	tx, err := ingest.ParseRecord(message)
	if err != nil {
		t.malformed.Add(1)
		t.logger.Debug().Err(err).Msg("malformed feed entry skipped")
		return
	}
	if tx.Wallet == "" {
		t.malformed.Add(1)
		return
	}

	if err := t.store.Insert(ctx, tx); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			t.duplicates.Add(1)
			return
		}
		t.logger.Error().Err(err).Str("tx_id", tx.TxID).Msg("store feed entry failed")
		return
	}

	t.ingested.Add(1)
	t.logger.Debug().
		Str("wallet", tx.Wallet).
		Str("action", string(tx.Action)).
		Msg("feed entry stored")
}

// pingLoop sends periodic ping frames to keep connection alive.
func (t *Tailer) pingLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.connMu.Lock()
			if t.conn != nil {
				t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
				t.conn.WriteMessage(websocket.PingMessage, nil)
			}
			t.connMu.Unlock()
		}
	}
}
