// Package eventstest records published events in memory.
package eventstest

import (
	"context"
	"sync"

	"petrent/pkg/events"
)

type Recorder struct {
	mu        sync.Mutex
	events    []events.Event
	refunds   []events.RefundRequest
	RefundErr error
}

var _ events.Publisher = (*Recorder)(nil)

func (r *Recorder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) RequestRefund(_ context.Context, req events.RefundRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RefundErr != nil {
		return r.RefundErr
	}
	r.refunds = append(r.refunds, req)
	return nil
}

func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

func (r *Recorder) Refunds() []events.RefundRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.RefundRequest(nil), r.refunds...)
}
