// Package workerpool runs a fixed number of goroutines pulling tasks off
// a shared channel, supervised by a tomb.Tomb so the whole pool winds
// down cleanly when its parent is asked to die.
package workerpool

import (
	"github.com/rs/zerolog/log"
	"gopkg.in/tomb.v2"
)

// Task is a unit of work submitted to a Pool.
type Task any

// Func processes one Task. A returned error is logged but does not stop
// the worker; only t.Dying() stops a worker.
type Func func(t *tomb.Tomb, task Task) error

// Pool is a fixed-size set of workers draining a shared task channel.
type Pool struct {
	size  int
	tasks chan Task
	work  Func
}

// New builds a Pool with the given number of workers and task queue
// depth. Run must be called to actually start the workers.
func New(size, queueDepth int, work Func) *Pool {
	return &Pool{
		size:  size,
		tasks: make(chan Task, queueDepth),
		work:  work,
	}
}

// Run starts size workers under t. It returns immediately; workers run
// until t.Dying() fires.
func (p *Pool) Run(t *tomb.Tomb) {
	log.Info().Int("workers", p.size).Msg("starting worker pool")
	for i := 0; i < p.size; i++ {
		t.Go(func() error {
			return p.worker(t)
		})
	}
}

func (p *Pool) worker(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := p.work(t, task); err != nil {
				log.Error().Err(err).Msg("worker task failed")
			}
		}
	}
}

// Submit enqueues a task, blocking if the queue is full. Once Run's tomb
// has died no worker remains to drain the queue, so a Submit on a full
// queue then blocks indefinitely.
func (p *Pool) Submit(task Task) {
	p.tasks <- task
}
