// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/docdocgo-cli/internal/backend"
	"github.com/jeranaias/docdocgo-cli/internal/model"
)

const (
	// DefaultTimeout bounds one submit/response cycle.
	DefaultTimeout = 2 * time.Minute

	// ScheduledQueryDirective is the system directive sent with an
	// auto-submitted scheduled query.
	ScheduledQueryDirective = "run scheduled query"
)

// Settings are the per-session credentials and model parameters.
type Settings struct {
	APIKey       string
	OpenAIAPIKey string
	Bot          backend.BotSettings
}

// Submission is one user or internal request. Text is user-visible input;
// System is an internal directive. Either may be empty, not both, unless
// files are selected.
type Submission struct {
	Text   string
	System string
}

// Turn is the applied outcome of one successful cycle.
type Turn struct {
	Number       uint64
	Scheduled    bool
	Endpoint     string
	Reply        model.HistoryEntry
	Instructions []model.Instruction
	Collection   model.CollectionInfo
	// CollectionChanged is true when the reply rebound the session.
	CollectionChanged bool
	// ScheduledQuery is the pending token after this turn, if any.
	ScheduledQuery string
	// Anomalies holds protocol violations found while applying instructions.
	Anomalies error
}

// dispatch is everything captured under the lock for one request.
type dispatch struct {
	number    uint64
	scheduled bool
	payload   *backend.Payload
	files     []backend.Attachment
	endpoint  string
}

// Controller drives the conversation with one backend.
type Controller struct {
	transport backend.Transport
	sessionID string
	timeout   time.Duration
	logger    *zap.Logger
	observer  Observer

	mu        sync.Mutex
	settings  Settings
	userID    string
	hasUserID bool

	history    []model.HistoryEntry
	collection model.CollectionInfo
	busy       bool
	pending    string
	lastError  string
	codes      *AccessCodeCache
	files      []backend.Attachment

	turn    uint64
	queued  bool
	changed chan struct{}
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger.Named("session")
		}
	}
}

// WithTimeout bounds each submit/response cycle. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithObserver registers the event observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithSessionID overrides the generated session id used in logs.
func WithSessionID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.sessionID = id
		}
	}
}

// WithAccessCodeCache shares an existing cache, e.g. across /new.
func WithAccessCodeCache(cache *AccessCodeCache) Option {
	return func(c *Controller) {
		if cache != nil {
			c.codes = cache
		}
	}
}

// New creates an idle controller bound to the default collection.
func New(transport backend.Transport, settings Settings, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		transport:  transport,
		sessionID:  uuid.NewString(),
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
		settings:   settings,
		history:    make([]model.HistoryEntry, 0),
		collection: model.DefaultCollection(),
		codes:      NewAccessCodeCache(),
		changed:    make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	c.userID, c.hasUserID = DeriveUserID(settings.OpenAIAPIKey)
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("session_id", c.sessionID))
	return c
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit sends one submission and applies the reply. It returns ErrBusy if a
// request is already in flight and ErrEmptySubmission if there is nothing to
// send. Transport and HTTP errors are returned and also recorded as the
// session's last error; history and collection are left unchanged.
func (c *Controller) Submit(ctx context.Context, sub Submission) (*Turn, error) {
	d, err := c.begin(sub, false, 0)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, d)
}

// begin is the single guarded entry for every submission. It performs the
// busy check-and-set, appends the submission to history and captures the
// request under one lock hold.
func (c *Controller) begin(sub Submission, scheduled bool, window uint64) (*dispatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if scheduled && (!c.queued || c.turn != window) {
		return nil, errStaleSchedule
	}
	if c.busy {
		return nil, ErrBusy
	}

	var files []backend.Attachment
	if !scheduled {
		files = c.files
	}
	if sub.Text == "" && sub.System == "" && len(files) == 0 {
		return nil, ErrEmptySubmission
	}

	prior := len(c.history)
	if sub.System != "" {
		c.history = append(c.history, model.NewSystemEntry(sub.System))
	}
	if sub.Text != "" || len(files) > 0 {
		c.history = append(c.history, model.NewUserEntry(sub.Text))
	}

	message := sub.Text
	if message == "" {
		message = sub.System
	}
	bot := c.settings.Bot
	payload := &backend.Payload{
		Message:        message,
		APIKey:         c.settings.APIKey,
		OpenAIAPIKey:   c.settings.OpenAIAPIKey,
		ChatHistory:    backend.EncodeHistory(c.history[:prior]),
		CollectionName: c.collection.Name,
		BotSettings:    &bot,
	}
	if c.hasUserID {
		payload.AccessCodesCache = c.codes.ForUser(c.userID)
	}
	if scheduled {
		payload.ScheduledQueriesStr = c.pending
	}

	endpoint := backend.ChatPath
	if backend.UsesAttachments(files) {
		endpoint = backend.IngestPath
	}
	if !scheduled {
		c.files = nil
	}

	c.turn++
	c.busy = true
	c.queued = false
	c.lastError = ""
	c.notifyLocked()

	return &dispatch{
		number:    c.turn,
		scheduled: scheduled,
		payload:   payload,
		files:     files,
		endpoint:  endpoint,
	}, nil
}

// run performs the request outside the lock and applies the outcome.
func (c *Controller) run(ctx context.Context, d *dispatch) (*Turn, error) {
	c.logger.Info("dispatch",
		zap.Uint64("turn", d.number),
		zap.String("endpoint", d.endpoint),
		zap.Bool("scheduled", d.scheduled),
		zap.Int("history", len(d.payload.ChatHistory)),
		zap.Int("files", len(d.files)))
	c.emit(Event{Kind: EventDispatched, Turn: d.number, Scheduled: d.scheduled, Endpoint: d.endpoint})

	start := time.Now()
	resp, err := c.send(ctx, d)
	if err != nil {
		c.fail(d, err, time.Since(start))
		return nil, err
	}
	return c.complete(d, resp, time.Since(start)), nil
}

func (c *Controller) send(ctx context.Context, d *dispatch) (*backend.ChatResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var (
		resp *backend.ChatResponse
		err  error
	)
	if d.endpoint == backend.IngestPath {
		resp, err = c.transport.Ingest(ctx, d.payload, d.files)
	} else {
		resp, err = c.transport.Chat(ctx, d.payload)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
			return nil, fmt.Errorf("no response within %s: %w", c.timeout, err)
		}
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrProtocol)
	}
	return resp, nil
}

func (c *Controller) fail(d *dispatch, err error, elapsed time.Duration) {
	c.mu.Lock()
	c.busy = false
	c.lastError = err.Error()
	c.notifyLocked()
	c.mu.Unlock()

	c.logger.Warn("turn failed",
		zap.Uint64("turn", d.number),
		zap.String("endpoint", d.endpoint),
		zap.Duration("duration", elapsed),
		zap.Error(err))
	c.emit(Event{Kind: EventFailed, Turn: d.number, Scheduled: d.scheduled, Err: err})
}

func (c *Controller) complete(d *dispatch, resp *backend.ChatResponse, elapsed time.Duration) *Turn {
	c.mu.Lock()

	reply := model.NewAssistantEntry(resp.Content, resp.Sources)
	c.history = append(c.history, reply)

	anomalies := c.applyInstructionsLocked(resp)

	coll, ok := resp.Collection()
	changed := ok && coll != c.collection
	if ok {
		c.collection = coll
	}
	c.pending = resp.ScheduledQueriesStr

	c.busy = false
	if anomalies != nil {
		c.lastError = anomalies.Error()
	}

	schedule := c.pending != "" && !c.closed
	window := c.turn
	if schedule {
		c.queued = true
		c.bg.Add(1)
	}

	turn := &Turn{
		Number:            d.number,
		Scheduled:         d.scheduled,
		Endpoint:          d.endpoint,
		Reply:             reply.Clone(),
		Instructions:      slices.Clone(resp.Instructions),
		Collection:        c.collection,
		CollectionChanged: changed,
		ScheduledQuery:    c.pending,
		Anomalies:         anomalies,
	}
	c.notifyLocked()
	c.mu.Unlock()

	c.logger.Info("reply",
		zap.Uint64("turn", d.number),
		zap.String("endpoint", d.endpoint),
		zap.Duration("duration", elapsed),
		zap.Int("sources", len(resp.Sources)),
		zap.Int("instructions", len(resp.Instructions)),
		zap.String("collection", turn.Collection.Name),
		zap.Bool("scheduled_pending", schedule))
	if anomalies != nil {
		c.logger.Error("protocol violation", zap.Uint64("turn", d.number), zap.Error(anomalies))
	}

	c.emit(Event{Kind: EventReply, Turn: d.number, Scheduled: d.scheduled, Reply: turn})
	if schedule {
		c.emit(Event{Kind: EventScheduled, Turn: d.number, Query: turn.ScheduledQuery})
		go c.runScheduled(window)
	}
	return turn
}

// runScheduled submits the pending scheduled query for one idle window. A
// user submission that lands first takes the window and this becomes a no-op.
func (c *Controller) runScheduled(window uint64) {
	defer c.bg.Done()

	d, err := c.begin(Submission{System: ScheduledQueryDirective}, true, window)
	if err != nil {
		if !errors.Is(err, errStaleSchedule) && !errors.Is(err, ErrClosed) {
			c.logger.Debug("scheduled query skipped", zap.Uint64("window", window), zap.Error(err))
		}
		return
	}
	// Errors are recorded on the session by run.
	_, _ = c.run(c.ctx, d)
}

// =============================================================================
// FILE SELECTION
// =============================================================================

// SelectFiles adds attachments to the selection for the next submission.
func (c *Controller) SelectFiles(files ...backend.Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, files...)
}

// SelectedFiles returns a copy of the current selection.
func (c *Controller) SelectedFiles() []backend.Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.files)
}

// ClearFiles empties the selection.
func (c *Controller) ClearFiles() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current turn state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.busy:
		return StateSubmitting
	case c.queued:
		return StateAwaitingScheduledQuery
	case c.lastError != "":
		return StateError
	default:
		return StateIdle
	}
}

// Snapshot returns a copy of the conversation state.
func (c *Controller) Snapshot() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SessionState{
		History:               model.CloneHistory(c.history),
		Collection:            c.collection,
		Busy:                  c.busy,
		PendingScheduledQuery: c.pending,
		LastError:             c.lastError,
		State:                 c.stateLocked(),
	}
}

// History returns a copy of the transcript.
func (c *Controller) History() []model.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CloneHistory(c.history)
}

// Collection returns the bound collection.
func (c *Controller) Collection() model.CollectionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collection
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// LastError returns the last turn's error text, or "".
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// PendingScheduledQuery returns the backend's pending query token, or "".
func (c *Controller) PendingScheduledQuery() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// UserID returns the derived user id; false if no OpenAI key is configured.
func (c *Controller) UserID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.hasUserID
}

// SessionID returns the id used in logs.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// AccessCodes returns a deep copy of the access-code cache.
func (c *Controller) AccessCodes() map[string]map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes.Snapshot()
}

// AccessCodeCache returns the underlying cache for handing to a new session.
// Callers must not use it while this controller is active.
func (c *Controller) AccessCodeCache() *AccessCodeCache {
	return c.codes
}

// Settings returns the current settings.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// SetBotSettings replaces the model parameters used by later requests.
func (c *Controller) SetBotSettings(bot backend.BotSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Bot = bot
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// WaitIdle blocks until no request is in flight and no scheduled query is
// queued, or until ctx is done.
func (c *Controller) WaitIdle(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.busy && !c.queued {
			c.mu.Unlock()
			return nil
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops scheduled continuations and waits for them to exit. Later
// submissions fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.queued = false
	c.notifyLocked()
	c.mu.Unlock()

	c.cancel()
	c.bg.Wait()
}

// notifyLocked wakes WaitIdle callers. Callers must hold c.mu.
func (c *Controller) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller) emit(e Event) {
	if c.observer != nil {
		c.observer(e)
	}
}
