package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
	"github.com/blackwell-systems/clientdash/internal/chat"
	"github.com/blackwell-systems/clientdash/internal/config"
	"github.com/blackwell-systems/clientdash/internal/logger"
	"github.com/blackwell-systems/clientdash/internal/output"
	"github.com/blackwell-systems/clientdash/internal/source"
)

// session bundles what every command needs: the loaded config, a logger,
// the data source controller and, when a webhook is configured, the chat
// channel.
type session struct {
	cfg  *config.Config
	log  logger.Logger
	ctrl *source.Controller
	chat *chat.Channel
}

// newSession loads the config, applies the global flags and wires the
// controller and chat channel. Chat notices go to stderr.
func newSession(stderr io.Writer) (*session, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagSource != "" {
		cfg.SourceURL = flagSource
	}

	if flagNoColor || !cfg.Output.Color || !output.StdoutIsTerminal() {
		output.SetNoColor(true)
	}

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	log := logger.NewZapLogger(logger.Options{
		FilePath:   cfg.Log.File,
		Level:      level,
		JSON:       cfg.Log.JSON,
		Console:    stderr,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	ctrl := source.NewController(source.NewHTTPFetcher(cfg.FetchTimeout), source.Options{
		Revenue: analyzer.RevenueOptions{
			Periods:   cfg.Revenue.Periods,
			Baseline:  cfg.Revenue.Baseline,
			Increment: cfg.Revenue.Increment,
		},
		Logger: log,
	})

	s := &session{cfg: cfg, log: log, ctrl: ctrl}
	if cfg.WebhookURL != "" {
		s.chat = chat.NewChannel(chat.NewClient(cfg.WebhookURL, cfg.WebhookTimeout), chat.Options{
			Updater:  ctrl,
			Notifier: chat.NotifierFunc(func(n chat.Notice) { printNotice(stderr, n) }),
			Logger:   log,
		})
	}
	return s, nil
}

// load fetches the configured source. Without a source the dashboard stays
// empty and an error explains how to configure one.
func (s *session) load(ctx context.Context) error {
	if s.cfg.SourceURL == "" {
		return fmt.Errorf("%w: set source_url in %s, CLIENTDASH_SOURCE_URL, or pass --source", source.ErrNoSource, config.ConfigPath())
	}
	if _, err := s.ctrl.Load(ctx, s.cfg.SourceURL); err != nil && !errors.Is(err, source.ErrSuperseded) {
		return fmt.Errorf("loading client sheet: %w", err)
	}
	return nil
}

func (s *session) close() {
	_ = s.log.Sync()
}

// printNotice renders a chat notice as a one-line status message.
func printNotice(w io.Writer, n chat.Notice) {
	switch n.Kind {
	case chat.NoticeDataUpdated:
		fmt.Fprintf(w, "%s %s: %s\n", output.StyleSuccess.Render("✓"), n.Title, n.Detail)
	default:
		fmt.Fprintf(w, "%s %s: %s\n", output.StyleError.Render("✗"), n.Title, n.Detail)
	}
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

