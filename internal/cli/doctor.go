// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Doctor command implementation for ddg.
//
// Command: doctor
// Short:   Run configuration and connectivity checks
// Aliases: diag
//
// Examples:
//   ddg doctor                Run all health checks
//   ddg doctor --json         Health check results in JSON
//
// Health Checks Performed:
//   1. Config Valid       - Validates the effective configuration
//   2. Backend Reachable  - Checks that the DocDocGo backend answers HTTP
//   3. API Key            - Checks that a backend key is set (optional)
//   4. OpenAI Key         - Checks that a user id can be derived (optional)
//   5. Log Writable       - Checks the log directory permissions
//   6. Export Writable    - Checks the export directory permissions
//
// Exit Codes:
//   0   No check failed
//   1   One or more checks failed

package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docdocgo-cli/internal/backend"
	"github.com/jeranaias/docdocgo-cli/internal/config"
	"github.com/jeranaias/docdocgo-cli/internal/session"
)

// DoctorCheckTimeout bounds the backend reachability check.
const DoctorCheckTimeout = 5 * time.Second

// =============================================================================
// DOCTOR STYLES
// =============================================================================

var (
	checkPassStyle = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	checkWarnStyle = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	checkFailStyle = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	// Fix suggestion style
	fixStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true).
			PaddingLeft(2)
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the lowercase name used in JSON output.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Symbol returns the styled marker for the check status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return checkPassStyle.Render("[OK]")
	case CheckWarn:
		return checkWarnStyle.Render("[!!]")
	case CheckFail:
		return checkFailStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// Render returns a formatted string representation of the health check.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), c.Message)
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + fixStyle.Render("-> "+c.Fix)
	}
	return result
}

// DoctorSummary counts check results.
type DoctorSummary struct {
	Passed  int  `json:"passed"`
	Warned  int  `json:"warned"`
	Failed  int  `json:"failed"`
	Healthy bool `json:"healthy"`
}

// DoctorData is the --json payload of doctor.
type DoctorData struct {
	Checks  []*HealthCheck `json:"checks"`
	Summary DoctorSummary  `json:"summary"`
}

// DoctorOptions configures a doctor run.
type DoctorOptions struct {
	Config     *config.Config
	ConfigPath string
	HTTPClient *http.Client
	JSON       bool
}

// =============================================================================
// HANDLE DOCTOR
// =============================================================================

// HandleDoctor runs every health check and prints the results.
func HandleDoctor(ctx context.Context, w io.Writer, opts DoctorOptions) error {
	checks := RunChecks(ctx, opts)

	var summary DoctorSummary
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarn:
			summary.Warned++
		case CheckFail:
			summary.Failed++
		}
	}
	summary.Healthy = summary.Failed == 0

	var failErr error
	if summary.Failed > 0 {
		failErr = fmt.Errorf("%d health check(s) failed", summary.Failed)
	}

	if opts.JSON {
		resp := NewJSONResponse("doctor", DoctorData{Checks: checks, Summary: summary})
		if failErr != nil {
			msg := failErr.Error()
			resp.Success = false
			resp.Error = &msg
		}
		if err := resp.Print(w); err != nil {
			return err
		}
		if failErr != nil {
			return silentError{failErr}
		}
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, summaryHeaderStyle.Render("ddg Doctor"))
	fmt.Fprintln(w, RenderSeparator(41))
	fmt.Fprintln(w)
	for _, check := range checks {
		fmt.Fprintln(w, check.Render())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, RenderSeparator(41))

	parts := []string{fmt.Sprintf("%d passed", summary.Passed)}
	if summary.Warned > 0 {
		parts = append(parts, checkWarnStyle.Render(fmt.Sprintf("%d warning", summary.Warned)))
	}
	if summary.Failed > 0 {
		parts = append(parts, checkFailStyle.Render(fmt.Sprintf("%d failed", summary.Failed)))
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
	fmt.Fprintln(w)

	if failErr != nil {
		return silentError{failErr}
	}
	return nil
}

// RunChecks runs all health checks in order.
func RunChecks(ctx context.Context, opts DoctorOptions) []*HealthCheck {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DoctorCheckTimeout}
	}

	logPath := cfg.Log.File
	if logPath == "" {
		logPath, _ = config.DefaultLogPath()
	}

	checks := []*HealthCheck{
		checkConfigValid(cfg, opts.ConfigPath),
		checkBackendReachable(ctx, hc, cfg.API.URL),
		checkAPIKey(cfg),
		checkOpenAIKey(cfg),
		checkDirWritable("Log Writable", "Log directory", filepath.Dir(logPath)),
	}
	if cfg.UI.ExportDir != "" {
		checks = append(checks, checkDirWritable("Export Writable", "Export directory", expandHome(cfg.UI.ExportDir)))
	}
	return checks
}

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

func checkConfigValid(cfg *config.Config, path string) *HealthCheck {
	check := &HealthCheck{Name: "Config Valid"}

	if err := cfg.Validate(); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config invalid: %s", err)
		check.Fix = "Run: ddg config init --force"
		return check
	}

	check.Status = CheckPass
	check.Message = "Config valid"
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			check.Message = "Config valid (using defaults)"
		}
	}
	return check
}

// checkBackendReachable treats any HTTP answer as reachable; only transport
// failures fail the check.
func checkBackendReachable(ctx context.Context, hc *http.Client, rawURL string) *HealthCheck {
	check := &HealthCheck{Name: "Backend Reachable"}

	base := backend.NormalizeBaseURL(rawURL)
	if base == "" {
		check.Status = CheckFail
		check.Message = "Backend URL not configured"
		check.Fix = "Run: ddg config set api.url http://localhost:5000"
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, DoctorCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Invalid backend URL: %s", err)
		return check
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Backend not reachable at %s", base)
		check.Fix = "Start the DocDocGo backend or set api.url"
		return check
	}
	resp.Body.Close()

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Backend reachable at %s (HTTP %d, %s)", base, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	return check
}

func checkAPIKey(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "API Key"}
	if cfg.API.Key == "" {
		check.Status = CheckWarn
		check.Message = "Backend API key not set (open backends only)"
		check.Fix = "Run: ddg config set api.key YOUR_KEY"
		return check
	}
	check.Status = CheckPass
	check.Message = "Backend API key set " + config.MaskSecret(cfg.API.Key)
	return check
}

func checkOpenAIKey(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "OpenAI Key"}
	userID, ok := session.DeriveUserID(cfg.API.OpenAIKey)
	if !ok {
		check.Status = CheckWarn
		check.Message = "OpenAI key not set (backend default key, access codes cannot be checked)"
		check.Fix = "Run: ddg config set api.openai_key YOUR_KEY"
		return check
	}
	check.Status = CheckPass
	check.Message = fmt.Sprintf("OpenAI key set (user id %s)", userID)
	return check
}

func checkDirWritable(name, label, dir string) *HealthCheck {
	check := &HealthCheck{Name: name}

	if err := os.MkdirAll(dir, 0700); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not create %s: %s", strings.ToLower(label), err)
		check.Fix = fmt.Sprintf("Create manually: mkdir -p %s", dir)
		return check
	}

	f, err := os.CreateTemp(dir, ".ddg_write_test")
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("%s not writable: %s", label, err)
		check.Fix = fmt.Sprintf("Check permissions: chmod 700 %s", dir)
		return check
	}
	f.Close()
	os.Remove(f.Name())

	check.Status = CheckPass
	check.Message = fmt.Sprintf("%s writable (%s)", label, dir)
	return check
}
