package scanner

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Batch is an ordered list of entries submitted together.
type Batch struct {
	ID      string
	Entries []*Entry
}

// NewBatch wraps entries in a batch with a fresh ID.
func NewBatch(entries []*Entry) *Batch {
	return &Batch{ID: uuid.NewString(), Entries: entries}
}

// Progress counts the finished entries of the current batch.
type Progress struct {
	BatchID string
	Done    int
	Total   int
}

// Finished reports whether every entry of the batch is done.
func (p Progress) Finished() bool {
	return p.Done == p.Total
}

// Worker processes batches one entry at a time on a single goroutine.
type Worker struct {
	mailbox    chan *Batch
	submitMu   sync.Mutex
	onProgress func(Progress)

	mu       sync.Mutex
	progress Progress
}

// NewWorker creates a worker. onProgress, if non-nil, is called from the worker
// goroutine after every entry and whenever a batch starts.
func NewWorker(onProgress func(Progress)) *Worker {
	return &Worker{
		mailbox:    make(chan *Batch, 1),
		onProgress: onProgress,
	}
}

// Submit hands b to the worker, discarding any batch that has not been picked up yet.
// The batch currently in flight is abandoned after its current entry.
func (w *Worker) Submit(b *Batch) {
	w.submitMu.Lock()
	defer w.submitMu.Unlock()

	select {
	case old := <-w.mailbox:
		log.Debug("dropping pending batch", "batch", old.ID)
	default:
	}
	w.mailbox <- b
}

// Progress returns the progress of the current batch.
func (w *Worker) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

// Run processes submitted batches until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-w.mailbox:
			for b != nil {
				b = w.process(ctx, b)
			}
		}
	}
}

// process works through b and returns the batch that superseded it, or nil when b ran
// to completion or ctx was cancelled.
func (w *Worker) process(ctx context.Context, b *Batch) *Batch {
	log.Debug("starting batch", "batch", b.ID, "entries", len(b.Entries))
	w.setProgress(Progress{BatchID: b.ID, Total: len(b.Entries)})

	for i, entry := range b.Entries {
		if _, err := entry.Record(); err != nil {
			log.Warn("could not load file", "path", entry.Path, "error", err)
		}
		w.setProgress(Progress{BatchID: b.ID, Done: i + 1, Total: len(b.Entries)})

		select {
		case <-ctx.Done():
			return nil
		case next := <-w.mailbox:
			log.Debug("batch superseded", "batch", b.ID, "by", next.ID, "done", i+1)
			return next
		default:
		}
	}

	log.Debug("batch finished", "batch", b.ID)
	return nil
}

func (w *Worker) setProgress(p Progress) {
	w.mu.Lock()
	w.progress = p
	w.mu.Unlock()

	if w.onProgress != nil {
		w.onProgress(p)
	}
}
