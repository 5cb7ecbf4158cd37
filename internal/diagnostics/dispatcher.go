// Package diagnostics forwards pipeline diagnostic events to a sink without
// ever blocking or failing the request that produced them.
package diagnostics

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/you/lendauth/domain"
)

// Sink receives dispatched events on the dispatcher goroutine
type Sink interface {
	Emit(ctx context.Context, event *domain.DiagnosticEvent)
}

// Dispatcher asynchronously forwards events to a sink. Events are dropped
// when the buffer is full.
type Dispatcher struct {
	sink      Sink
	ch        chan *domain.DiagnosticEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewDispatcher(bufferSize int, sink Sink) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if sink == nil {
		sink = NoopSink{}
	}

	d := &Dispatcher{
		sink: sink,
		ch:   make(chan *domain.DiagnosticEvent, bufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.emit(event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.emit(event)
				default:
					return
				}
			}
		}
	}
}

// emit shields the dispatcher goroutine from a panicking sink
func (d *Dispatcher) emit(event *domain.DiagnosticEvent) {
	defer func() { _ = recover() }()
	d.sink.Emit(context.Background(), event)
}

// Record implements domain.DiagnosticsSink
func (d *Dispatcher) Record(ctx context.Context, event *domain.DiagnosticEvent) {
	if d == nil || event == nil || d.closed.Load() {
		return
	}

	select {
	case d.ch <- event:
	case <-d.done:
	default:
		d.dropped.Add(1)
	}
}

// Close drains buffered events and stops the dispatcher goroutine
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

var _ domain.DiagnosticsSink = (*Dispatcher)(nil)
