package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/persistdo/internal/app"
	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/scheduler"
	"github.com/nhle/persistdo/internal/store"
	"github.com/nhle/persistdo/internal/tracker"
)

// session is one load-act-save cycle against the configured store.
type session struct {
	cfg     *model.AppConfig
	store   store.Persister
	tracker *tracker.Tracker

	// reset lists the tasks the catch-up sweep reverted.
	reset []string
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *rootOptions) (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dataPath != "" {
		cfg.Storage.Path = opts.dataPath
	}
	if opts.driver != "" {
		cfg.Storage.Driver = strings.ToLower(opts.driver)
	}
	return cfg, nil
}

// openSession loads state once and runs the catch-up sweep.
func openSession(ctx context.Context, opts *rootOptions, trackerOpts ...tracker.Option) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	p, err := store.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}

	trackerOpts = append([]tracker.Option{
		tracker.WithLocation(loc),
		tracker.WithDarkModeDefault(cfg.Display.DarkMode),
	}, trackerOpts...)

	t, err := tracker.Open(ctx, p, trackerOpts...)
	if err != nil {
		p.Close()
		return nil, err
	}

	reset := t.SweepNow()
	if len(reset) > 0 {
		log.Printf("[scheduler] catch-up reset %d task(s)", len(reset))
	}

	return &session{cfg: cfg, store: p, tracker: t, reset: reset}, nil
}

// Close flushes the last save and closes the store.
func (s *session) Close() error {
	saveErr := s.tracker.Close()
	if saveErr != nil {
		saveErr = fmt.Errorf("saving state: %w", saveErr)
	}
	return errors.Join(saveErr, s.store.Close())
}

// withSession runs fn inside a session and reports the first error.
func withSession(ctx context.Context, opts *rootOptions, fn func(*session) error) error {
	setupCLILogging(opts)

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	fnErr := fn(s)
	return errors.Join(fnErr, s.Close())
}

func setupCLILogging(opts *rootOptions) {
	if opts.debug {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}

// runTUI opens the full-screen interface. Logs go to a file next to the
// state file so they never draw over the UI.
func runTUI(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logPath := filepath.Join(filepath.Dir(cfg.Storage.Path), "persistdo.log")
	if cfg.Storage.Path == ":memory:" {
		logPath = "persistdo.log"
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := tea.LogToFile(logPath, "persistdo")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}

	sched := scheduler.New(s.tracker, s.cfg.SweepInterval())
	p := tea.NewProgram(
		app.New(s.tracker, sched),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, runErr := p.Run()
	sched.Stop()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}
	return errors.Join(runErr, s.Close())
}
