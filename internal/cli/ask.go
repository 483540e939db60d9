// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single message command handler.
//
// Command: ask [message]
//
// Examples:
//   ddg ask "What does the onboarding guide say about VPN access?"
//   ddg ask "Summarize these" --file report.pdf --file notes.md
//   ddg ask --json "List the open questions"
//
// Scheduled queries triggered by the reply are run before ask exits, and
// every reply is printed in order.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/docdocgo-cli/internal/backend"
	"github.com/jeranaias/docdocgo-cli/internal/config"
	"github.com/jeranaias/docdocgo-cli/internal/export"
	"github.com/jeranaias/docdocgo-cli/internal/session"
)

// AskOptions configures a one-shot submission.
type AskOptions struct {
	Config    *config.Config
	Transport backend.Transport
	Logger    *zap.Logger

	Message string
	Files   []string

	// JSON prints the resulting transcript as JSON instead of rendered replies.
	JSON bool

	Markdown bool

	Out io.Writer
	Err io.Writer
}

// HandleAskCommand sends one message, waits for any scheduled follow-ups and
// prints the replies. It returns every turn error and protocol anomaly seen,
// joined, so a clean follow-up reply does not hide an earlier warning.
func HandleAskCommand(ctx context.Context, opts AskOptions) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := opts.Transport
	if transport == nil {
		transport = NewTransport(cfg, logger)
	}
	out, errOut := opts.Out, opts.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	message := strings.TrimSpace(opts.Message)
	if message == "" && len(opts.Files) == 0 {
		return &UsageError{Message: "no message provided"}
	}

	var files []backend.Attachment
	if len(opts.Files) > 0 {
		var err error
		if files, err = LoadAttachments(opts.Files); err != nil {
			return err
		}
	}

	renderer := NewRenderer(cfg.UI.Theme, cfg.UI.WordWrap, opts.Markdown && !opts.JSON)
	var (
		outMu   sync.Mutex
		turnErr error
	)
	observer := func(e session.Event) {
		outMu.Lock()
		defer outMu.Unlock()
		switch e.Kind {
		case session.EventReply:
			if !opts.JSON {
				fmt.Fprint(out, renderer.Entry(e.Reply.Reply))
			}
			if e.Reply.Anomalies != nil {
				turnErr = errors.Join(turnErr, e.Reply.Anomalies)
				fmt.Fprintf(errOut, "%s %v\n", warningStyle.Render("[Warning]"), e.Reply.Anomalies)
			}
		case session.EventFailed:
			turnErr = errors.Join(turnErr, e.Err)
			fmt.Fprint(errOut, renderer.Error(e.Err.Error()))
		}
	}

	ctrl := session.New(transport, SessionSettings(cfg),
		session.WithLogger(logger),
		session.WithTimeout(cfg.Timeout()),
		session.WithObserver(observer),
	)
	defer ctrl.Close()

	ctrl.SelectFiles(files...)
	if _, err := ctrl.Submit(ctx, session.Submission{Text: message}); err != nil {
		if errors.Is(err, session.ErrEmptySubmission) {
			return err
		}
		// Printed by the observer; the session stays in its error state.
		return silentError{err}
	}
	if err := ctrl.WaitIdle(ctx); err != nil {
		return err
	}

	if opts.JSON {
		t := export.NewTranscript(ctrl.SessionID(), ctrl.History())
		t.Collection = ctrl.Collection()
		t.Model = cfg.Bot.Model
		t.Temperature = cfg.Bot.Temperature
		data, err := export.NewJSONExporter(nil).Export(t)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	}

	// The final scheduled turn may still be reporting.
	ctrl.Close()
	outMu.Lock()
	defer outMu.Unlock()
	if turnErr != nil {
		return silentError{turnErr}
	}
	return nil
}
