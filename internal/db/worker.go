package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// ErrWorkerClosed is returned by Do once Close has been called.
var ErrWorkerClosed = errors.New("db: worker closed")

type TxFn func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// Worker runs write transactions one at a time on a single goroutine so
// that read-modify-write sequences against SQLite never interleave.
type Worker struct {
	db   *sql.DB
	jobs chan job
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:   db,
		jobs: make(chan job, 256),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Close stops accepting jobs, finishes the ones already queued and waits
// for the loop to exit. It is safe to call more than once.
func (w *Worker) Close() {
	w.once.Do(func() { close(w.quit) })
	<-w.done
}

// Do runs fn inside a transaction on the worker goroutine. fn's error rolls
// the transaction back; otherwise it is committed.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)
	j := job{ctx: ctx, fn: fn, ch: ch}

	select {
	case w.jobs <- j:
	case <-w.quit:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// If the caller gives up while the job is queued or running, the
	// transaction still completes and its result is dropped.
	select {
	case err := <-ch:
		return err
	case <-w.done:
		select {
		case err := <-ch:
			return err
		default:
			return ErrWorkerClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer close(w.done)

	for {
		select {
		case j := <-w.jobs:
			w.run(j)
		case <-w.quit:
			for {
				select {
				case j := <-w.jobs:
					w.run(j)
				default:
					return
				}
			}
		}
	}
}

func (w *Worker) run(j job) {
	tx, err := w.db.BeginTx(j.ctx, nil)
	if err != nil {
		j.ch <- err
		return
	}
	if err := j.fn(j.ctx, tx); err != nil {
		_ = tx.Rollback()
		j.ch <- err
		return
	}
	j.ch <- tx.Commit()
}
