// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the conversation controller for a DocDocGo backend.
//
// The Controller owns the transcript, the bound collection, the busy flag and
// the per-turn error. It builds each request, dispatches it through a
// backend.Transport, applies the reply and its instructions, and re-submits
// backend-scheduled queries on its own.
//
// # Key Types
//
//   - Controller: Turn state machine with a single guarded submission entry
//   - AccessCodeCache: userID -> collection -> access code, owned per controller
//   - Submission: User text and/or an internal system directive
//   - Turn: The applied outcome of one successful submit/response cycle
//   - Event/Observer: Notifications for the presentation layer
//
// # Concurrency
//
// At most one request is in flight. User submissions and the scheduled-query
// continuation funnel through the same check-and-set of the busy flag;
// Submit returns ErrBusy instead of queueing. The continuation runs on a
// background goroutine that Close cancels and waits for.
//
// # Usage
//
//	ctrl := session.New(backend.NewClient(url), session.Settings{APIKey: key})
//	defer ctrl.Close()
//	turn, err := ctrl.Submit(ctx, session.Submission{Text: "Hello"})
//	_ = ctrl.WaitIdle(ctx) // let scheduled queries finish
package session
