// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"

	"github.com/jeranaias/docdocgo-cli/internal/backend"
)

// recordedCall is one request seen by fakeTransport.
type recordedCall struct {
	Endpoint string
	Payload  backend.Payload
	Files    []backend.Attachment
}

// fakeTransport scripts backend replies. respond receives the zero-based call
// index; when nil the transport echoes an empty reply.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(ctx context.Context, n int, call recordedCall) (*backend.ChatResponse, error)
}

var _ backend.Transport = (*fakeTransport)(nil)

func (f *fakeTransport) Chat(ctx context.Context, p *backend.Payload) (*backend.ChatResponse, error) {
	return f.handle(ctx, recordedCall{Endpoint: backend.ChatPath, Payload: *p})
}

func (f *fakeTransport) Ingest(ctx context.Context, p *backend.Payload, files []backend.Attachment) (*backend.ChatResponse, error) {
	return f.handle(ctx, recordedCall{Endpoint: backend.IngestPath, Payload: *p, Files: files})
}

func (f *fakeTransport) handle(ctx context.Context, call recordedCall) (*backend.ChatResponse, error) {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, call)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return &backend.ChatResponse{}, nil
	}
	return respond(ctx, n, call)
}

func (f *fakeTransport) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// replies returns a respond func that serves the list in order and repeats
// the last element.
func replies(list ...*backend.ChatResponse) func(context.Context, int, recordedCall) (*backend.ChatResponse, error) {
	return func(_ context.Context, n int, _ recordedCall) (*backend.ChatResponse, error) {
		if n >= len(list) {
			n = len(list) - 1
		}
		r := *list[n]
		return &r, nil
	}
}

// eventLog records observer events from any goroutine.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) observe(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, len(l.events))
	for i, e := range l.events {
		out[i] = e.Kind
	}
	return out
}
