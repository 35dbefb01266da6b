package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/repositories"
	"github.com/desertthunder/vkx/internal/shared"
	"github.com/desertthunder/vkx/internal/ui"
)

const defaultTUILog = "./tmp/vkx-tui.log"

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = defaultTUILog
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	cache, err := r.queryClient()
	if err != nil {
		return err
	}
	likes, err := r.likeEngine(s)
	if err != nil {
		return err
	}
	content, err := r.contentEngine(s)
	if err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Deps{
		Catalog: s.Service(),
		Likes:   likes,
		Content: content,
		Cache:   cache,
		History: repositories.NewSearchHistoryRepository(db),
		User:    s.User(),
		UI:      r.config.UI,
		Clock:   r.clock,
		Logger:  fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse collections, places and search interactively",
		Action: r.TUI,
	}
}
