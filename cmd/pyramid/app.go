package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"pyramid/internal/agent"
	"pyramid/internal/config"
	"pyramid/internal/history"
	"pyramid/internal/logging"
	"pyramid/internal/orchestrator"
	"pyramid/internal/session"
	"pyramid/internal/store"
	"pyramid/internal/transport"
)

// turnEventBuffer bounds the hand-off between a turn worker and the UI.
const turnEventBuffer = 256

// app is everything a chat front end needs: one session, the orchestrator
// over it and the settings it runs with.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	closeLog io.Closer
	state    *session.State
	orch     *orchestrator.Orchestrator
	agents   []agent.Spec
	now      func() time.Time
}

func wireApp(v *viper.Viper, opts config.Options, verbose bool) (*app, error) {
	cfg, err := config.Load(v, opts)
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.Open(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}
	client := transport.NewClient(transport.Options{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Logger:  logger.WithPrefix("transport"),
	})
	a := newApp(cfg, client, logger)
	a.closeLog = closer
	logger.Info("session started", "base_url", cfg.BaseURL, "config", cfg.ConfigFile, "save_dir", cfg.SaveDir)
	return a, nil
}

func newApp(cfg *config.Config, tr orchestrator.Transport, logger *log.Logger) *app {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	agents := agent.Roster()
	state := session.New()
	return &app{
		cfg:    cfg,
		logger: logger,
		state:  state,
		agents: agents,
		now:    time.Now,
		orch: orchestrator.New(state, tr, orchestrator.Options{
			Agents:      agents,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Logger:      logger.WithPrefix("orchestrator"),
		}),
	}
}

func (a *app) Close() error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog.Close()
}

// startTurn runs the turn on a worker goroutine. Events arrive on the sink's
// channel; the outcome is delivered on done just before the channel closes.
func (a *app) startTurn(ctx context.Context, turn orchestrator.Turn) *turnWorker {
	w := &turnWorker{
		turn: turn,
		sink: orchestrator.NewChannelSink(ctx, turnEventBuffer),
		done: make(chan orchestrator.Outcome, 1),
	}
	go func() {
		var outcome orchestrator.Outcome
		defer func() {
			w.done <- outcome
			w.sink.Close()
		}()
		outcome = a.orch.Run(ctx, turn, w.sink)
	}()
	return w
}

type turnWorker struct {
	turn orchestrator.Turn
	sink *orchestrator.ChannelSink
	done chan orchestrator.Outcome
}

// saveConversation writes the session to path, or to a fresh default name in
// the save directory when path is empty. It returns the written path.
func (a *app) saveConversation(path string) (string, error) {
	if path == "" {
		path = store.DefaultPath(a.cfg.SaveDir, a.now())
	}
	if err := store.Save(a.state, path); err != nil {
		a.logger.Error("save failed", "path", path, "err", err)
		return path, err
	}
	a.logger.Info("conversation saved", "path", path)
	return path, nil
}

// loadConversation replaces the session with the file's contents. On any
// failure the session is left as it was.
func (a *app) loadConversation(path string) (session.Snapshot, error) {
	snap, err := store.Load(path)
	if err != nil {
		a.logger.Error("load failed", "path", path, "err", err)
		return session.Snapshot{}, err
	}
	a.state.Replace(snap)
	a.logger.Info("conversation loaded", "path", path, "context", len(snap.Context), "history", len(snap.History))
	return snap, nil
}

func (a *app) historyView(styles history.Styles) string {
	return history.Render(a.state.Snapshot().History, styles)
}

func savedMessage(path string) string {
	return "Conversation saved to " + path
}

func saveErrorMessage(err error) string {
	return "Error saving conversation: " + err.Error()
}

func loadedMessages(path string, snap session.Snapshot) []string {
	return []string{
		"Conversation loaded from " + path,
		fmt.Sprintf("Loaded %d message exchanges", snap.Exchanges()),
	}
}

func loadErrorMessage(err error) string {
	return "Error loading conversation: " + err.Error()
}
