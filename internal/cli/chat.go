// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat with a DocDocGo backend.
//
// Command: chat (also the default when ddg runs with no subcommand)
//
// Interactive Commands (during chat):
//   /help, /h             Show available commands
//   /attach <path>...     Select files for the next message
//   /files                List selected files
//   /detach               Clear the file selection
//   /settings [...]       Show or change model and temperature
//   /collection           Show the bound collection
//   /codes                List collections with cached access codes
//   /status, /s           Show session state
//   /history              Show the transcript
//   /export [md|json] [dir]  Export the transcript
//   /new                  Start a fresh session
//   /quit, /q             Exit chat
//   Ctrl+C                Stop waiting for the current response
//   Ctrl+D                Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/docdocgo-cli/internal/backend"
	"github.com/jeranaias/docdocgo-cli/internal/config"
	"github.com/jeranaias/docdocgo-cli/internal/export"
	"github.com/jeranaias/docdocgo-cli/internal/model"
	"github.com/jeranaias/docdocgo-cli/internal/session"
	"github.com/jeranaias/docdocgo-cli/internal/util"
)

// maxPromptLabelWidth bounds the collection name shown in the prompt.
const maxPromptLabelWidth = 32

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI. With persist set, input history is loaded
// from and saved to the config directory.
func NewChatCLI(persist bool) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	cli := &ChatCLI{line: line}
	if persist {
		configDir, err := config.ConfigDir()
		if err != nil {
			configDir = os.TempDir()
		}
		cli.historyFile = filepath.Join(configDir, "chat_history")
		cli.LoadHistory()
	}
	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatOptions configures a Chat.
type ChatOptions struct {
	Config *config.Config

	// ConfigPath is watched for bot-settings changes. Empty disables reload.
	ConfigPath string

	// Overrides is reapplied to every reloaded config, so command-line
	// flags keep precedence over the file.
	Overrides func(*config.Config)

	// Transport defaults to an HTTP client for Config.API.URL.
	Transport backend.Transport

	Logger *zap.Logger

	// Markdown enables glamour rendering of replies.
	Markdown bool

	Out io.Writer
	Err io.Writer
}

// Chat is one interactive chat: a session controller plus terminal output.
type Chat struct {
	transport backend.Transport
	logger    *zap.Logger
	renderer  *Renderer
	out       io.Writer
	errOut    io.Writer
	outMu     sync.Mutex
	startTime time.Time

	// printing counts dispatched turns whose outcome is not yet printed.
	printing sync.WaitGroup

	mu       sync.Mutex
	cfg      *config.Config
	ctrl     *session.Controller
	sessions int
}

// NewChat creates a chat with a fresh session.
func NewChat(opts ChatOptions) *Chat {
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

	c := &Chat{
		transport: transport,
		logger:    logger,
		renderer:  NewRenderer(cfg.UI.Theme, cfg.UI.WordWrap, opts.Markdown),
		out:       out,
		errOut:    errOut,
		startTime: time.Now(),
		cfg:       cfg.Clone(),
	}
	c.ctrl = c.newController(nil)
	return c
}

// NewTransport returns the HTTP client for cfg. A zero config timeout
// leaves requests unbounded.
func NewTransport(cfg *config.Config, logger *zap.Logger) backend.Transport {
	return backend.NewClient(cfg.API.URL).
		WithLogger(logger).
		WithTimeout(cfg.Timeout())
}

// SessionSettings maps the config onto controller settings.
func SessionSettings(cfg *config.Config) session.Settings {
	return session.Settings{
		APIKey:       cfg.API.Key,
		OpenAIAPIKey: cfg.API.OpenAIKey,
		Bot:          BotSettings(cfg),
	}
}

// BotSettings maps the config's model parameters onto the wire type.
func BotSettings(cfg *config.Config) backend.BotSettings {
	return backend.BotSettings{
		LLMModelName: cfg.Bot.Model,
		Temperature:  cfg.Bot.Temperature,
	}
}

// newController builds a session bound to the current config. Callers
// other than NewChat must hold c.mu.
func (c *Chat) newController(codes *session.AccessCodeCache) *session.Controller {
	c.sessions++
	return session.New(c.transport, SessionSettings(c.cfg),
		session.WithLogger(c.logger),
		session.WithTimeout(c.cfg.Timeout()),
		session.WithObserver(c.onEvent),
		session.WithAccessCodeCache(codes),
	)
}

// Controller returns the active session.
func (c *Chat) Controller() *session.Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctrl
}

// Close stops the active session.
func (c *Chat) Close() {
	c.Controller().Close()
}

// ApplyConfig pushes reloaded bot settings into the active session.
func (c *Chat) ApplyConfig(cfg *config.Config) {
	c.mu.Lock()
	c.cfg.Bot = cfg.Bot
	ctrl := c.ctrl
	bot := BotSettings(c.cfg)
	c.mu.Unlock()

	ctrl.SetBotSettings(bot)
	c.printf("%s model %s, temperature %.2f\n",
		infoStyle.Render("[Settings reloaded]"), bot.LLMModelName, bot.Temperature)
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand runs the interactive chat until the user quits.
func HandleChatCommand(ctx context.Context, opts ChatOptions) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	chat := NewChat(opts)
	defer chat.Close()

	if opts.ConfigPath != "" {
		onChange := chat.ApplyConfig
		if opts.Overrides != nil {
			onChange = func(cfg *config.Config) {
				opts.Overrides(cfg)
				chat.ApplyConfig(cfg)
			}
		}
		if w, err := config.NewWatcher(opts.ConfigPath, onChange, opts.Logger); err != nil {
			chat.logger.Warn("config watcher unavailable", zap.Error(err))
		} else if err := w.Watch(); err != nil {
			chat.logger.Warn("config watcher unavailable", zap.Error(err))
			w.Close()
		} else {
			defer w.Close()
		}
	}

	input := NewChatCLI(chat.cfg.UI.History)
	defer input.Close()

	chat.printWelcome()

	for {
		line, err := input.ReadInput(promptStyle.Render(chat.Prompt()))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or a closed terminal
			chat.printf("\n")
			chat.printExitSummary()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			shouldContinue, err := chat.handleSlashCommand(ctx, line)
			if err != nil {
				chat.errorf("%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !shouldContinue {
				chat.printExitSummary()
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			chat.printExitSummary()
			return nil
		}

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		err = chat.Send(sigCtx, line)
		interrupted := sigCtx.Err() != nil && ctx.Err() == nil
		stop()
		if interrupted {
			chat.printf("\n%s\n", warningStyle.Render("[Stopped waiting]"))
		}
		if err != nil && !interrupted {
			chat.errorf("%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// Send submits one message and waits for it and any scheduled queries it
// triggers. Replies and turn errors are printed by the event observer; the
// returned error is for submissions the session refused.
func (c *Chat) Send(ctx context.Context, text string) error {
	ctrl := c.Controller()
	_, err := ctrl.Submit(ctx, session.Submission{Text: text})
	switch {
	case errors.Is(err, session.ErrBusy):
		return errors.New("still awaiting the previous response")
	case errors.Is(err, session.ErrEmptySubmission), errors.Is(err, session.ErrClosed):
		return err
	}
	if err := ctrl.WaitIdle(ctx); err != nil {
		return err
	}
	c.printing.Wait()
	return nil
}

// Prompt is the input prompt: the bound collection, or a wait notice while
// a request is in flight.
func (c *Chat) Prompt() string {
	ctrl := c.Controller()
	if ctrl.Busy() {
		return "Awaiting response... > "
	}
	name := util.TruncateWidth(ctrl.Collection().UserFacingName, maxPromptLabelWidth)
	return fmt.Sprintf("Collection: %s > ", name)
}

// =============================================================================
// EVENT OUTPUT
// =============================================================================

// onEvent prints replies and failures as the session reports them.
func (c *Chat) onEvent(e session.Event) {
	switch e.Kind {
	case session.EventDispatched:
		c.printing.Add(1)
		if e.Scheduled {
			c.printf("%s\n", warningStyle.Render("[Running scheduled query]"))
		}

	case session.EventReply:
		defer c.printing.Done()
		c.printTurn(e.Reply)

	case session.EventFailed:
		defer c.printing.Done()
		c.printf("%s", c.renderer.Error(e.Err.Error()))

	case session.EventScheduled:
		c.logger.Debug("scheduled query queued", zap.Uint64("turn", e.Turn))
	}
}

// printTurn prints an applied reply and anything it changed.
func (c *Chat) printTurn(t *session.Turn) {
	if t == nil {
		return
	}
	c.printf("\n%s\n", c.renderer.Entry(t.Reply))

	if t.CollectionChanged {
		c.printf("%s %s\n", infoStyle.Render("[Collection]"), commandStyle.Render(t.Collection.UserFacingName))
	}
	if model.HasInstruction(t.Instructions, model.InstructionShowUploader) {
		c.printf("%s %s\n", infoStyle.Render("[Upload]"),
			"Use /attach <path> to select files, then send a message.")
	}
	if t.Anomalies != nil {
		c.errorf("%s %v\n", warningStyle.Render("[Warning]"), t.Anomalies)
	}
}

func (c *Chat) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Chat) errorf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.errOut, format, args...)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func (c *Chat) handleSlashCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		c.printHelp()
		return true, nil

	case "/attach", "/a":
		return true, c.handleAttach(args)

	case "/files":
		c.printFiles()
		return true, nil

	case "/detach":
		c.Controller().ClearFiles()
		c.printf("%s\n", commandStyle.Render("[Files cleared]"))
		return true, nil

	case "/settings":
		return true, c.handleSettings(args)

	case "/collection":
		col := c.Controller().Collection()
		c.printf("%s %s %s\n", infoStyle.Render("Collection:"),
			commandStyle.Render(col.UserFacingName), infoStyle.Render("("+col.Name+")"))
		return true, nil

	case "/codes":
		c.printCodes()
		return true, nil

	case "/status", "/s":
		c.printStatus()
		return true, nil

	case "/history":
		c.printHistory()
		return true, nil

	case "/export":
		return true, c.handleExport(args)

	case "/new":
		c.handleNew()
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleAttach adds files to the selection for the next message.
func (c *Chat) handleAttach(paths []string) error {
	files, err := LoadAttachments(paths)
	if err != nil {
		return err
	}
	ctrl := c.Controller()
	ctrl.SelectFiles(files...)
	for _, f := range files {
		c.printf("%s %s (%s)\n", commandStyle.Render("[Attached]"), f.Name, formatBytes(int64(len(f.Data))))
	}
	c.printf("%s\n", infoStyle.Render(fmt.Sprintf("%d file(s) will be sent with your next message.", len(ctrl.SelectedFiles()))))
	return nil
}

// handleSettings shows or changes the model parameters.
func (c *Chat) handleSettings(args []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(args) == 0 {
		c.printf("%s %s\n", infoStyle.Render("Model:"), commandStyle.Render(c.cfg.Bot.Model))
		c.printf("%s %s\n", infoStyle.Render("Temperature:"), commandStyle.Render(strconv.FormatFloat(c.cfg.Bot.Temperature, 'f', -1, 64)))
		return nil
	}

	next := c.cfg.Clone()
	switch strings.ToLower(args[0]) {
	case "model":
		if len(args) != 2 {
			return errors.New("usage: /settings model <name>")
		}
		next.Bot.Model = args[1]
	case "temperature", "temp":
		if len(args) != 2 {
			return errors.New("usage: /settings temperature <0-2>")
		}
		t, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid temperature %q", args[1])
		}
		next.Bot.Temperature = t
	case "reset":
		def := config.Default()
		next.Bot = def.Bot
	default:
		return fmt.Errorf("unknown setting %q (use model, temperature or reset)", args[0])
	}
	if err := next.Validate(); err != nil {
		return err
	}

	c.cfg.Bot = next.Bot
	c.ctrl.SetBotSettings(BotSettings(c.cfg))
	c.printf("%s model %s, temperature %s\n", commandStyle.Render("[OK]"),
		c.cfg.Bot.Model, strconv.FormatFloat(c.cfg.Bot.Temperature, 'f', -1, 64))
	return nil
}

// handleExport writes the transcript to a file.
func (c *Chat) handleExport(args []string) error {
	format := "md"
	if len(args) > 0 {
		format = args[0]
	}

	c.mu.Lock()
	dir := c.cfg.UI.ExportDir
	bot := c.cfg.Bot
	ctrl := c.ctrl
	c.mu.Unlock()
	if len(args) > 1 {
		dir = args[1]
	}

	opts := export.DefaultOptions()
	if dir != "" {
		opts.OutputDir = expandHome(dir)
	}
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}

	t := export.NewTranscript(ctrl.SessionID(), ctrl.History())
	t.Collection = ctrl.Collection()
	t.Model = bot.Model
	t.Temperature = bot.Temperature

	path, err := export.ExportToFile(t, exporter, opts)
	if err != nil {
		return err
	}
	c.printf("%s %s\n", commandStyle.Render("[Exported]"), path)
	return nil
}

// handleNew replaces the session. The old transcript is left untouched;
// cached access codes carry over.
func (c *Chat) handleNew() {
	c.mu.Lock()
	old := c.ctrl
	c.mu.Unlock()

	old.Close()

	c.mu.Lock()
	c.ctrl = c.newController(old.AccessCodeCache())
	c.mu.Unlock()

	c.printf("%s\n", commandStyle.Render("[New session started]"))
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func (c *Chat) printWelcome() {
	c.mu.Lock()
	cfg := c.cfg.Clone()
	c.mu.Unlock()

	c.printf("\n%s\n", welcomeStyle.Render("DocDocGo chat"))
	c.printf("%s\n", RenderSeparator())
	c.printf("%s %s\n", infoStyle.Render("Backend:"), commandStyle.Render(cfg.API.URL))
	c.printf("%s %s\n", infoStyle.Render("Model:"), commandStyle.Render(cfg.Bot.Model))
	if cfg.API.OpenAIKey == "" {
		c.printf("%s %s\n", infoStyle.Render("OpenAI key:"), warningStyle.Render("not set (access codes will not be cached)"))
	}
	c.printf("\n%s\n\n", infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
}

// printHelp prints available commands.
func (c *Chat) printHelp() {
	c.printf("\n%s\n", summaryHeaderStyle.Render("Available Commands"))
	c.printf("%s\n\n", RenderSeparator(20))

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/attach <path>", "Select files for the next message"},
		{"/files", "List selected files"},
		{"/detach", "Clear the file selection"},
		{"/settings", "Show model settings"},
		{"/settings model <name>", "Change the model"},
		{"/settings temperature <t>", "Change the temperature (0-2)"},
		{"/settings reset", "Restore default model settings"},
		{"/collection", "Show the current collection"},
		{"/codes", "List collections with cached access codes"},
		{"/status, /s", "Show session state"},
		{"/history", "Show the transcript"},
		{"/export [md|json] [dir]", "Export the transcript"},
		{"/new", "Start a new session"},
		{"/quit, /q", "Exit chat"},
	}

	for _, cmd := range commands {
		c.printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-26s", cmd.cmd)),
			infoStyle.Render(cmd.desc))
	}

	c.printf("\n%s\n\n", infoStyle.Render("Tip: Ctrl+C stops waiting for a response, Ctrl+D exits"))
}

// printFiles lists the current file selection.
func (c *Chat) printFiles() {
	files := c.Controller().SelectedFiles()
	if len(files) == 0 {
		c.printf("%s\n", infoStyle.Render("[No files selected]"))
		return
	}
	for _, f := range files {
		c.printf("  %s %s\n", commandStyle.Render(f.Name), infoStyle.Render(formatBytes(int64(len(f.Data)))))
	}
}

// printCodes lists collections with a cached access code for this user.
// Codes are masked.
func (c *Chat) printCodes() {
	ctrl := c.Controller()
	userID, ok := ctrl.UserID()
	if !ok {
		c.printf("%s\n", warningStyle.Render("[No OpenAI key set; access codes are not cached]"))
		return
	}
	codes := ctrl.AccessCodes()[userID]
	if len(codes) == 0 {
		c.printf("%s\n", infoStyle.Render("[No cached access codes]"))
		return
	}
	for _, name := range slices.Sorted(maps.Keys(codes)) {
		c.printf("  %s %s\n", commandStyle.Render(name), infoStyle.Render(config.MaskSecret(codes[name])))
	}
}

// printStatus prints the session state.
func (c *Chat) printStatus() {
	ctrl := c.Controller()
	snap := ctrl.Snapshot()
	settings := ctrl.Settings()

	c.printf("\n%s\n", summaryHeaderStyle.Render("Session Status"))
	c.printf("%s\n\n", RenderSeparator(20))

	c.printf("  %s %s\n", infoStyle.Render("Session:"), ctrl.SessionID())
	c.printf("  %s %s\n", infoStyle.Render("State:"), commandStyle.Render(snap.State.String()))
	c.printf("  %s %s\n", infoStyle.Render("Collection:"), commandStyle.Render(snap.Collection.UserFacingName))
	c.printf("  %s %s\n", infoStyle.Render("Model:"), settings.Bot.LLMModelName)
	c.printf("  %s %d messages\n", infoStyle.Render("History:"), len(snap.History))
	c.printf("  %s %d\n", infoStyle.Render("Files:"), len(ctrl.SelectedFiles()))
	if snap.PendingScheduledQuery != "" {
		c.printf("  %s %s\n", infoStyle.Render("Scheduled:"), warningStyle.Render("pending"))
	}
	if snap.LastError != "" {
		c.printf("  %s %s\n", infoStyle.Render("Last error:"), errorStyle.Render(util.TruncateRunes(snap.LastError, 100)))
	}
	c.printf("  %s %s\n\n", infoStyle.Render("Duration:"), time.Since(c.startTime).Round(time.Second))
}

// printHistory prints the transcript with long messages truncated.
func (c *Chat) printHistory() {
	history := c.Controller().History()

	c.printf("\n%s\n", summaryHeaderStyle.Render("Conversation History"))
	c.printf("%s\n\n", RenderSeparator(20))

	if len(history) == 0 {
		c.printf("%s\n\n", infoStyle.Render("  (empty)"))
		return
	}

	for i, e := range history {
		label := e.Role.DisplayName() + ":"
		switch e.Role {
		case model.RoleUser:
			label = userLabelStyle.Render(label)
		case model.RoleAssistant:
			label = assistantLabelStyle.Render(label)
		default:
			label = systemLabelStyle.Render(label)
		}
		content := strings.ReplaceAll(e.Content, "\n", " ")
		c.printf("  %d. %s %s\n", i+1, label, util.TruncateRunes(content, 100))
		if e.HasSources() {
			c.printf("     %s\n", infoStyle.Render(fmt.Sprintf("%d source(s)", len(e.Sources))))
		}
	}
	c.printf("\n")
}

// printExitSummary prints a short summary on exit.
func (c *Chat) printExitSummary() {
	snap := c.Controller().Snapshot()
	c.mu.Lock()
	sessions := c.sessions
	c.mu.Unlock()

	c.printf("\n%s\n", summaryHeaderStyle.Render("Session Summary"))
	c.printf("%s\n", RenderSeparator(20))
	c.printf("  %s %d messages\n", infoStyle.Render("History:"), len(snap.History))
	c.printf("  %s %d\n", infoStyle.Render("Sessions:"), sessions)
	c.printf("  %s %s\n\n", infoStyle.Render("Duration:"), time.Since(c.startTime).Round(time.Second))
}
