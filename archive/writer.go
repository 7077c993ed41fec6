package archive

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	cerr "github.com/saeidalz13/battleship-arena/internal/error"
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

const (
	DefaultQueueSize    = 128
	DefaultWriteTimeout = time.Second * 10
)

// Writer implements battleship.Archiver. Archive only enqueues; records
// are written by Run on its own goroutine.
type Writer struct {
	store        Store
	queue        chan mb.ArchiveRecord
	writeTimeout time.Duration
	onWritten    func(ctx context.Context, rec mb.ArchiveRecord)
	done         chan struct{}
}

var _ mb.Archiver = (*Writer)(nil)

type WriterOption func(*Writer)

func WithQueueSize(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.queue = make(chan mb.ArchiveRecord, n)
		}
	}
}

func WithWriteTimeout(d time.Duration) WriterOption {
	return func(w *Writer) {
		w.writeTimeout = d
	}
}

// WithOnWritten registers a hook that runs after every successful write.
func WithOnWritten(fn func(ctx context.Context, rec mb.ArchiveRecord)) WriterOption {
	return func(w *Writer) {
		w.onWritten = fn
	}
}

func NewWriter(store Store, opts ...WriterOption) *Writer {
	w := &Writer{
		store:        store,
		queue:        make(chan mb.ArchiveRecord, DefaultQueueSize),
		writeTimeout: DefaultWriteTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Writer) Store() Store {
	return w.store
}

// Archive hands a record to the writer. It never blocks: when the queue
// is full the record is dropped and logged.
func (w *Writer) Archive(rec mb.ArchiveRecord) {
	select {
	case w.queue <- rec:
	default:
		log.Error().Str("match_id", rec.MatchId).Msg("archive queue full; record dropped")
	}
}

// Run writes queued records until ctx is cancelled, then drains what is
// left in the queue and returns.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case rec := <-w.queue:
			w.write(ctx, rec)

		case <-ctx.Done():
			for {
				select {
				case rec := <-w.queue:
					w.write(context.Background(), rec)
				default:
					return
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

func (w *Writer) write(parent context.Context, rec mb.ArchiveRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), w.writeTimeout)
	defer cancel()

	if err := w.store.Append(ctx, rec); err != nil {
		log.Error().Err(cerr.ErrArchiveFailed(rec.MatchId, err)).Str("match_id", rec.MatchId).Msg("archive write failed")
		return
	}
	log.Info().Str("match_id", rec.MatchId).Bool("completed", rec.Completed).Msg("match archived")

	if w.onWritten != nil {
		w.onWritten(ctx, rec)
	}
}
