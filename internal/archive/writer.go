package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclass/relay/internal/router"
)

// WriterConfig holds chat writer settings.
type WriterConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     100,
		FlushInterval: 1 * time.Second,
	}
}

// WriterMetrics contains runtime statistics.
type WriterMetrics struct {
	Received int64
	Inserts  int64
	Errors   int64
	Flushes  int64
}

// chatRow is one row of the chat_messages table.
type chatRow struct {
	RoomID   string
	SenderID string
	Name     string
	UserID   string
	Body     string
	SentAt   time.Time
}

// ChatWriter consumes chat records from the router feed and writes them to
// the chat_messages table in batches.
type ChatWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	// Input from Message Router
	input <-chan router.ChatRecord

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []chatRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewChatWriter creates a chat transcript writer.
func NewChatWriter(cfg WriterConfig, input <-chan router.ChatRecord, db *pgxpool.Pool, logger *slog.Logger) *ChatWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatWriter{
		cfg:    cfg,
		logger: logger,
		input:  input,
		db:     db,
		batch:  make([]chatRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming records and writing to the database.
func (w *ChatWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("chat writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *ChatWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping chat writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("chat writer stopped")
	case <-ctx.Done():
		w.logger.Warn("chat writer stop timed out")
	}

	// Final flush
	w.flush()

	return nil
}

// Stats returns current metrics.
func (w *ChatWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the feed and accumulates batches.
func (w *ChatWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case rec, ok := <-w.input:
			if !ok {
				return
			}
			w.handleRecord(rec)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *ChatWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// handleRecord transforms and adds a record to the batch.
func (w *ChatWriter) handleRecord(rec router.ChatRecord) {
	row := transform(rec)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	w.metrics.Received++
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// transform converts a ChatRecord to a chatRow.
func transform(rec router.ChatRecord) chatRow {
	return chatRow{
		RoomID:   rec.RoomID,
		SenderID: rec.SenderID,
		Name:     rec.Name,
		UserID:   rec.UserID,
		Body:     rec.Text,
		SentAt:   rec.SentAt,
	}
}

// flush writes the current batch to the database.
func (w *ChatWriter) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]chatRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	if err := w.batchInsert(batch); err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch))
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed chat messages",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch.
func (w *ChatWriter) batchInsert(rows []chatRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO chat_messages (room_id, sender_id, sender_name, user_id, body, sent_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.RoomID, r.SenderID, r.Name, nullable(r.UserID), r.Body, r.SentAt)
	}

	results := w.db.SendBatch(w.ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// nullable maps "" to NULL for optional columns.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// pendingLen returns the number of unflushed rows.
func (w *ChatWriter) pendingLen() int {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return len(w.batch)
}
