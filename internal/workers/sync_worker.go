// Package workers drains the transactional outbox into the search index.
package workers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/adapters/search"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/metrics"

	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog"
)

const (
	syncInterval  = 1 * time.Second
	retryInterval = 30 * time.Second
	batchSize     = 200
	dlqBatchSize  = 50
)

// Index is the search index the worker writes to
type Index interface {
	Name() string
	EnsureIndex(ctx context.Context) error
	NewBulkIndexer() (esutil.BulkIndexer, error)
}

// TicketSource loads the current state of a ticket
type TicketSource interface {
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
}

// SyncWorker copies outbox events into the search index. Failed events go
// to the DLQ and are retried by RetryDLQ.
type SyncWorker struct {
	outbox  repositories.OutboxRepository
	tickets TicketSource
	index   Index
	log     zerolog.Logger
	now     func() time.Time
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(outbox repositories.OutboxRepository, tickets TicketSource, index Index, l zerolog.Logger) *SyncWorker {
	return &SyncWorker{
		outbox:  outbox,
		tickets: tickets,
		index:   index,
		log:     l.With().Str("component", "sync_worker").Logger(),
		now:     time.Now,
	}
}

// Run ensures the index exists then processes a batch every second until
// ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) error {
	if err := w.index.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	w.log.Info().Str("index", w.index.Name()).Msg("sync worker started")

	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("sync worker stopped")
			return nil
		case <-ticker.C:
			if err := w.processOnce(ctx); err != nil {
				w.log.Error().Err(err).Msg("sync batch failed")
			}
		}
	}
}

// RetryDLQ reapplies unresolved DLQ entries every 30 seconds until ctx is
// cancelled.
func (w *SyncWorker) RetryDLQ(ctx context.Context) {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.retryOnce(ctx); err != nil {
				w.log.Error().Err(err).Msg("dlq retry failed")
			}
		}
	}
}

func (w *SyncWorker) processOnce(ctx context.Context) error {
	events, err := w.outbox.FetchBatch(ctx, batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	bi, err := w.index.NewBulkIndexer()
	if err != nil {
		return err
	}

	failed := func(ev models.OutboxEvent, msg string) {
		metrics.FailedEvents.Inc()
		w.putDLQ(ctx, ev, msg)
	}
	for _, ev := range events {
		if err := w.applyEvent(ctx, bi, ev, failed); err != nil {
			failed(ev, err.Error())
		}
	}

	if err := bi.Close(ctx); err != nil {
		return err
	}
	stats := bi.Stats()
	w.log.Debug().Uint64("flushed", stats.NumFlushed).Uint64("failed", stats.NumFailed).Msg("sync batch done")
	return nil
}

func (w *SyncWorker) retryOnce(ctx context.Context) error {
	rows, err := w.outbox.ListUnresolvedDLQ(ctx, dlqBatchSize)
	if err != nil {
		return err
	}
	defer w.refreshDLQGauge(ctx)
	if len(rows) == 0 {
		return nil
	}

	bi, err := w.index.NewBulkIndexer()
	if err != nil {
		return err
	}

	var mu sync.Mutex
	stillFailing := map[int64]bool{}
	failed := func(ev models.OutboxEvent, msg string) {
		mu.Lock()
		stillFailing[ev.ID] = true
		mu.Unlock()
		w.log.Warn().Int64("outbox_id", ev.ID).Str("error", msg).Msg("dlq retry still failing")
	}

	for _, d := range rows {
		ev := models.OutboxEvent{
			ID:         d.OutboxID,
			EntityType: d.EntityType,
			EntityID:   d.EntityID,
			Op:         d.Op,
			Payload:    d.Payload,
		}
		if err := w.applyEvent(ctx, bi, ev, failed); err != nil {
			failed(ev, err.Error())
		}
	}
	if err := bi.Close(ctx); err != nil {
		return err
	}

	at := w.now()
	for _, d := range rows {
		if stillFailing[d.OutboxID] {
			continue
		}
		if err := w.outbox.ResolveDLQ(ctx, d.ID, at); err != nil {
			return err
		}
		w.log.Info().Int64("dlq_id", d.ID).Msg("dlq entry resolved")
	}
	return nil
}

// applyEvent queues the index action for one outbox event. onFailure runs
// when the bulk request rejects the item.
func (w *SyncWorker) applyEvent(ctx context.Context, bi esutil.BulkIndexer, ev models.OutboxEvent, onFailure func(models.OutboxEvent, string)) error {
	if ev.EntityType != models.OutboxEntityTicket {
		return fmt.Errorf("unknown entity_type=%s", ev.EntityType)
	}

	if ev.Op == models.OutboxOpDelete {
		return w.add(ctx, bi, ev, "delete", nil, onFailure)
	}

	t, err := w.tickets.GetByID(ctx, ev.EntityID)
	if errors.Is(err, domain.ErrNotFound) {
		return w.add(ctx, bi, ev, "delete", nil, onFailure)
	}
	if err != nil {
		return err
	}
	doc, err := search.BuildTicketDoc(t)
	if err != nil {
		return err
	}
	return w.add(ctx, bi, ev, "index", doc, onFailure)
}

func (w *SyncWorker) add(ctx context.Context, bi esutil.BulkIndexer, ev models.OutboxEvent, action string, body []byte, onFailure func(models.OutboxEvent, string)) error {
	item := esutil.BulkIndexerItem{
		Action:     action,
		DocumentID: ev.EntityID,
		OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
			metrics.ProcessedEvents.Inc()
		},
		OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			var msg string
			switch {
			case err != nil:
				msg = err.Error()
			case res.Error.Reason != "":
				msg = fmt.Sprintf("%s: %s", res.Error.Type, res.Error.Reason)
			default:
				msg = fmt.Sprintf("status=%d failed to index", res.Status)
			}
			onFailure(ev, msg)
		},
	}
	if len(body) > 0 {
		item.Body = bytes.NewReader(body)
	}
	return bi.Add(ctx, item)
}

func (w *SyncWorker) putDLQ(ctx context.Context, ev models.OutboxEvent, msg string) {
	metrics.DLQEvents.Inc()
	if err := w.outbox.PutDLQ(ctx, ev, msg); err != nil {
		w.log.Error().Err(err).Int64("outbox_id", ev.ID).Msg("failed to insert into dlq")
		return
	}
	w.log.Warn().Int64("outbox_id", ev.ID).Str("entity_id", ev.EntityID).Str("error", msg).Msg("event moved to dlq")
}

func (w *SyncWorker) refreshDLQGauge(ctx context.Context) {
	n, err := w.outbox.CountUnresolvedDLQ(ctx)
	if err != nil {
		return
	}
	metrics.DLQPending.Set(float64(n))
}
